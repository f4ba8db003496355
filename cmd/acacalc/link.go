package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

type decodedLink struct {
	Request     domain.CalculationRequest `json:"request"`
	AutoExplain bool                      `json:"auto_explain"`
	CacheKey    domain.CacheKey           `json:"cache_key"`
}

func linkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Build or decode a share link",
		Long: "Without --link encodes the household flags into a share link. " +
			"With --link decodes the link and prints the normalized request and its cache key.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, auto, err := readRequest(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if link, _ := cmd.Flags().GetString("link"); link != "" {
				b, err := json.MarshalIndent(decodedLink{Request: req, AutoExplain: auto, CacheKey: domain.DeriveCacheKey(req)}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}

			if err := req.Validate(); err != nil {
				return err
			}
			explain, _ := cmd.Flags().GetBool("explain")
			query := domain.EncodeShareLink(req, explain).Encode()
			if base, _ := cmd.Flags().GetString("base"); base != "" {
				query = base + "?" + query
			}
			fmt.Fprintln(out, query)
			return nil
		},
	}
	householdFlags(cmd)
	cmd.Flags().Bool("explain", false, "Open the explanation automatically when the link is visited")
	cmd.Flags().String("base", "", "UI address to prefix the query with")
	return cmd
}
