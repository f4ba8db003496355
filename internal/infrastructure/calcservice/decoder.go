package calcservice

import "bytes"

var (
	lfDelim   = []byte("\n\n")
	crlfDelim = []byte("\r\n\r\n")
	dataField = []byte("data")
)

// Decoder режет поток server-sent events на записи. Буфер байтовый: граница чанка может
// прийти посреди записи, строки или многобайтного символа, результат от этого не зависит.
type Decoder struct {
	buf []byte
}

// Feed добавляет чанк и возвращает payload'ы всех записей, завершившихся пустой строкой.
// Незавершённый хвост остаётся в буфере до следующего чанка.
func (d *Decoder) Feed(chunk []byte) [][]byte {
	d.buf = append(d.buf, chunk...)

	var payloads [][]byte
	for {
		end, delimLen := recordEnd(d.buf)
		if end < 0 {
			break
		}
		if p, ok := dataPayload(d.buf[:end]); ok {
			payloads = append(payloads, p)
		}
		d.buf = d.buf[end+delimLen:]
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return payloads
}

// Pending сообщает, что в буфере лежит незавершённая запись.
func (d *Decoder) Pending() bool {
	return len(bytes.TrimSpace(d.buf)) > 0
}

// recordEnd ищет самый ранний разделитель записей.
func recordEnd(buf []byte) (int, int) {
	lf := bytes.Index(buf, lfDelim)
	crlf := bytes.Index(buf, crlfDelim)
	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0 || (lf >= 0 && lf < crlf):
		return lf, len(lfDelim)
	}
	return crlf, len(crlfDelim)
}

// dataPayload собирает значения строк data: записи, склеивая их через \n.
// Комментарии (":...") и прочие поля пропускаются. Результат — новая копия байтов.
func dataPayload(record []byte) ([]byte, bool) {
	var parts [][]byte
	for _, line := range bytes.Split(record, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 || line[0] == ':' {
			continue
		}
		name, value, found := bytes.Cut(line, []byte(":"))
		if !bytes.Equal(name, dataField) {
			continue
		}
		if found {
			value = bytes.TrimPrefix(value, []byte(" "))
		}
		parts = append(parts, value)
	}
	if len(parts) == 0 {
		return nil, false
	}
	return bytes.Join(parts, []byte("\n")), true
}
