package importer

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// xmlEncodingDecl XML 声明中的 encoding 属性，只匹配文件开头
var xmlEncodingDecl = regexp.MustCompile(`^\s*<\?xml[^>]*?\bencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// toUTF8 将旧编码（GBK、Shift_JIS、Big5 等）的 XHTML 转为 UTF-8。
// 依次参考 XML 声明、BOM 与 meta charset；都没有声明时整篇合法 UTF-8 原样返回，
// 否则与浏览器一致按 windows-1252 解码
func toUTF8(data []byte) []byte {
	var enc encoding.Encoding
	var name string

	if m := xmlEncodingDecl.FindSubmatch(data); m != nil {
		enc, name = charset.Lookup(string(m[1]))
	}
	if enc == nil {
		var certain bool
		enc, name, certain = charset.DetermineEncoding(data, "")
		// DetermineEncoding 只检查前 1024 字节，未声明编码时以整篇是否为合法 UTF-8 为准
		if !certain && !declaresCharset(data) && utf8.Valid(data) {
			return data
		}
	}
	if enc == nil || strings.EqualFold(name, "utf-8") {
		return data
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return bytes.TrimPrefix(out, []byte("\ufeff"))
}

// metaCharset <meta charset> 或 http-equiv Content-Type 中的 charset 参数
var metaCharset = regexp.MustCompile(`(?i)<meta\b[^>]*\bcharset\s*=`)

func declaresCharset(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return metaCharset.Match(head)
}

// xmlCharsetReader encoding/xml 的 CharsetReader，未知编码按 UTF-8 处理
func xmlCharsetReader(label string, input io.Reader) (io.Reader, error) {
	r, err := charset.NewReaderLabel(label, input)
	if err != nil {
		return input, nil
	}
	return r, nil
}
