package importer

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const containerPath = "META-INF/container.xml"

// packageDoc EPUB 包文档中与章节提取相关的部分
type packageDoc struct {
	manifest map[string]string // id -> href
	spine    []string          // idref，阅读顺序
	hasSpine bool
}

// newXMLDecoder 宽松模式解码，容忍常见的 HTML 实体和未闭合标签
func newXMLDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = xmlCharsetReader
	return dec
}

// parseContainer 返回第一个 full-path 属性指向的包文档路径
func parseContainer(data []byte) (string, error) {
	dec := newXMLDecoder(data)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil
			}
			return "", err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if v := attrValue(se, "full-path"); v != "" {
			return v, nil
		}
	}
}

// parsePackage 扫描 manifest 的 item 与 spine 的 itemref，属性顺序无关
func parsePackage(data []byte) (*packageDoc, error) {
	doc := &packageDoc{manifest: make(map[string]string)}
	dec := newXMLDecoder(data)
	inSpine := false

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return doc, nil
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch strings.ToLower(t.Name.Local) {
			case "item":
				id, href := attrValue(t, "id"), attrValue(t, "href")
				if id != "" && href != "" {
					if _, dup := doc.manifest[id]; !dup {
						doc.manifest[id] = href
					}
				}
			case "spine":
				doc.hasSpine = true
				inSpine = true
			case "itemref":
				if inSpine {
					if idref := attrValue(t, "idref"); idref != "" {
						doc.spine = append(doc.spine, idref)
					}
				}
			}
		case xml.EndElement:
			if strings.ToLower(t.Name.Local) == "spine" {
				inSpine = false
			}
		}
	}
}

func attrValue(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}
