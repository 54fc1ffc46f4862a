package forum

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// decodeBody converts GBK/GB2312 responses to UTF-8. Older Chinese Discuz
// boards still serve legacy encodings; everything downstream assumes UTF-8.
func decodeBody(contentType string, body []byte) ([]byte, error) {
	if !isLegacyChinese(contentType, body) {
		return body, nil
	}
	return io.ReadAll(transform.NewReader(bytes.NewReader(body), simplifiedchinese.GBK.NewDecoder()))
}

func isLegacyChinese(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "gbk") || strings.Contains(ct, "gb2312") {
		return true
	}

	// The charset often only appears in a meta tag near the top of the page.
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("charset=gbk")) || bytes.Contains(lower, []byte("charset=gb2312"))
}
