package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"
)

// buildTestZip 在内存中构造 ZIP，按路径排序写入以保证确定性
func buildTestZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestZip: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildTestZip: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestZip: close writer: %v", err)
	}
	return buf.Bytes()
}

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// testOPF 根据 manifest 条目与 spine 顺序生成包文档
func testOPF(items [][2]string, spine []string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata/>
  <manifest>
`)
	for _, it := range items {
		sb.WriteString(`    <item id="` + it[0] + `" href="` + it[1] + `" media-type="application/xhtml+xml"/>` + "\n")
	}
	sb.WriteString("  </manifest>\n  <spine>\n")
	for _, id := range spine {
		sb.WriteString(`    <itemref idref="` + id + `"/>` + "\n")
	}
	sb.WriteString("  </spine>\n</package>")
	return sb.String()
}

func xhtml(title, body string) string {
	head := "<head></head>"
	if title != "" {
		head = "<head><title>" + title + "</title></head>"
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">` + head + "<body>" + body + "</body></html>"
}

const longParagraph = "<p>The rain had not stopped for three days, and the river was rising.</p>"

// fakeConverter 返回预置的 HTML 或错误
type fakeConverter struct {
	html string
	err  error
}

func (f *fakeConverter) ConvertToHTML(_ context.Context, _ io.ReaderAt, _ int64) (string, error) {
	return f.html, f.err
}

func titles(chapters []ParsedChapter) []string {
	out := make([]string, len(chapters))
	for i, ch := range chapters {
		out[i] = ch.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
