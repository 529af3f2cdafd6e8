package importer

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

var (
	errMemberNotFound = errors.New("archive member not found")
	errMemberTooLarge = errors.New("archive member exceeds size limit")
	errUnsafePath     = errors.New("archive member path escapes archive root")
)

// archive 只读 ZIP 容器，按路径查找成员（先精确匹配，再忽略大小写）
type archive struct {
	zr    *zip.Reader
	exact map[string]*zip.File
	lower map[string]*zip.File
	limit int64
}

func openArchive(r io.ReaderAt, size int64, limit int64) (*archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}

	a := &archive{
		zr:    zr,
		exact: make(map[string]*zip.File, len(zr.File)),
		lower: make(map[string]*zip.File, len(zr.File)),
		limit: limit,
	}
	for _, f := range zr.File {
		if _, ok := a.exact[f.Name]; !ok {
			a.exact[f.Name] = f
		}
		key := strings.ToLower(f.Name)
		if _, ok := a.lower[key]; !ok {
			a.lower[key] = f
		}
	}
	return a, nil
}

func (a *archive) find(name string) *zip.File {
	if f, ok := a.exact[name]; ok {
		return f
	}
	if f, ok := a.lower[strings.ToLower(name)]; ok {
		return f
	}
	return nil
}

// read 读取成员内容，解压后的大小受 limit 约束（声明大小可能被伪造，实际读取时再校验）
func (a *archive) read(name string) ([]byte, error) {
	if !isSafePath(name) {
		return nil, fmt.Errorf("%w: %s", errUnsafePath, name)
	}
	f := a.find(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", errMemberNotFound, name)
	}
	if f.UncompressedSize64 > uint64(a.limit) {
		return nil, fmt.Errorf("%w: %s", errMemberTooLarge, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, a.limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > a.limit {
		return nil, fmt.Errorf("%w: %s", errMemberTooLarge, name)
	}
	return stripBOM(data), nil
}

// resolvePath 将 href 解析为相对 baseDir 的归档内路径，越界或绝对路径返回空串
func resolvePath(baseDir, href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if href == "" || strings.HasPrefix(href, "/") {
		return ""
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	cleaned := path.Clean(path.Join(baseDir, href))
	if !isSafePath(cleaned) {
		return ""
	}
	return cleaned
}

func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
