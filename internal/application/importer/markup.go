package importer

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// wrapperTags 仅起包裹作用的容器，切分章节时向内展开
var wrapperTags = map[atom.Atom]bool{
	atom.Body:    true,
	atom.Div:     true,
	atom.Section: true,
	atom.Article: true,
	atom.Main:    true,
}

// parseNodes 将富文本片段解析为 body 下的顶层节点列表
func parseNodes(markup string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, err
	}
	return unwrapNodes(nodes), nil
}

// unwrapNodes 顶层只有一个包裹容器时返回其子节点
func unwrapNodes(nodes []*html.Node) []*html.Node {
	for {
		var only *html.Node
		count := 0
		for _, n := range nodes {
			if isBlankText(n) {
				continue
			}
			only = n
			count++
		}
		if count != 1 || only.Type != html.ElementNode || !wrapperTags[only.DataAtom] {
			return nodes
		}

		children := make([]*html.Node, 0)
		for c := only.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		for _, c := range children {
			only.RemoveChild(c)
		}
		nodes = children
	}
}

func isBlankText(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}

// isChapterHeading 章节边界只认 h1/h2
func isChapterHeading(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.H1 || n.DataAtom == atom.H2)
}

// inlineTags 文本提取时不插入分隔空白的行内元素
var inlineTags = map[atom.Atom]bool{
	atom.A:      true,
	atom.B:      true,
	atom.I:      true,
	atom.U:      true,
	atom.S:      true,
	atom.Em:     true,
	atom.Strong: true,
	atom.Span:   true,
	atom.Sub:    true,
	atom.Sup:    true,
	atom.Small:  true,
	atom.Mark:   true,
	atom.Code:   true,
}

// nodeText 节点及其后代的纯文本，空白折叠
func nodeText(nodes ...*html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && !inlineTags[n.DataAtom] {
			sb.WriteByte(' ')
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return collapseSpace(sb.String())
}

// renderNodes 将节点序列化回 HTML，首尾空白节点丢弃
func renderNodes(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if isBlankText(n) {
			continue
		}
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// firstSignificant 跳过空白文本节点，返回第一个有效节点的下标，没有时返回 -1
func firstSignificant(nodes []*html.Node) int {
	for i, n := range nodes {
		if !isBlankText(n) {
			return i
		}
	}
	return -1
}
