package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func parseEpubBytes(t *testing.T, imp *Importer, data []byte) ([]ParsedChapter, error) {
	t.Helper()
	return imp.ParseEpub(context.Background(), bytes.NewReader(data), int64(len(data)))
}

func TestParseEpub_SpineOrder(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf": testOPF(
			[][2]string{{"c1", "one.xhtml"}, {"c2", "two.xhtml"}, {"c3", "three.xhtml"}},
			[]string{"c3", "c1", "c2"},
		),
		"OEBPS/one.xhtml":   xhtml("One", longParagraph),
		"OEBPS/two.xhtml":   xhtml("Two", longParagraph),
		"OEBPS/three.xhtml": xhtml("Three", longParagraph),
	})

	chapters, err := parseEpubBytes(t, New(nil, Options{}), data)
	if err != nil {
		t.Fatalf("ParseEpub: %v", err)
	}
	if got, want := titles(chapters), []string{"Three", "One", "Two"}; !equalStrings(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}
	if chapters[0].HTML != longParagraph {
		t.Errorf("html = %q, want %q", chapters[0].HTML, longParagraph)
	}
}

func TestParseEpub_SkipsNonContentItems(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf": testOPF(
			[][2]string{{"cover", "cover.xhtml"}, {"c1", "one.xhtml"}, {"toc", "toc.xhtml"}, {"c2", "two.xhtml"}},
			[]string{"cover", "c1", "toc", "ghost", "c2"},
		),
		"OEBPS/cover.xhtml": xhtml("Cover", `<p><img src="cover.jpg"/>Cover</p>`),
		"OEBPS/toc.xhtml":   xhtml("Contents", `<p>exactly twenty ch.</p>`),
		"OEBPS/one.xhtml":   xhtml("One", longParagraph),
		"OEBPS/two.xhtml":   xhtml("Two", longParagraph),
	})

	chapters, err := parseEpubBytes(t, New(nil, Options{}), data)
	if err != nil {
		t.Fatalf("ParseEpub: %v", err)
	}
	if got, want := titles(chapters), []string{"One", "Two"}; !equalStrings(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}
}

func TestParseEpub_MissingMemberSkipped(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf": testOPF(
			[][2]string{{"c1", "one.xhtml"}, {"c2", "gone.xhtml"}},
			[]string{"c1", "c2"},
		),
		"OEBPS/one.xhtml": xhtml("One", longParagraph),
	})

	chapters, err := parseEpubBytes(t, New(nil, Options{}), data)
	if err != nil {
		t.Fatalf("ParseEpub: %v", err)
	}
	if len(chapters) != 1 || chapters[0].Title != "One" {
		t.Errorf("chapters = %v, want only One", titles(chapters))
	}
}

func TestParseEpub_TitleFallbacks(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf": testOPF(
			[][2]string{{"a", "a.xhtml"}, {"b", "chapter_03-the-finale.xhtml"}},
			[]string{"a", "b"},
		),
		"OEBPS/a.xhtml":                     xhtml("", "<h2>The Storm</h2>"+longParagraph),
		"OEBPS/chapter_03-the-finale.xhtml": xhtml("", longParagraph),
	})

	chapters, err := parseEpubBytes(t, New(nil, Options{}), data)
	if err != nil {
		t.Fatalf("ParseEpub: %v", err)
	}
	if got, want := titles(chapters), []string{"The Storm", "chapter 03 the finale"}; !equalStrings(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}
}

func TestParseEpub_RelativeAndEscapedHref(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf": `<package><manifest>
			<item href="../Text/Chapter%201.xhtml#start" media-type="application/xhtml+xml" id="c1"/>
		</manifest><spine><itemref idref="c1"/></spine></package>`,
		"Text/Chapter 1.xhtml": xhtml("Arrival", longParagraph),
	})

	chapters, err := parseEpubBytes(t, New(nil, Options{}), data)
	if err != nil {
		t.Fatalf("ParseEpub: %v", err)
	}
	if len(chapters) != 1 || chapters[0].Title != "Arrival" {
		t.Errorf("chapters = %v, want [Arrival]", titles(chapters))
	}
}

func TestParseEpub_SanitizesBody(t *testing.T) {
	body := `<script>alert(1)</script><p onclick="steal()">` +
		`A long enough paragraph to count as chapter content.</p><style>p{}</style>`
	data := buildTestZip(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF([][2]string{{"c1", "one.xhtml"}}, []string{"c1"}),
		"OEBPS/one.xhtml":        xhtml("One", body),
	})

	chapters, err := parseEpubBytes(t, New(nil, Options{}), data)
	if err != nil {
		t.Fatalf("ParseEpub: %v", err)
	}
	got := chapters[0].HTML
	for _, bad := range []string{"<script", "<style", "onclick"} {
		if strings.Contains(got, bad) {
			t.Errorf("html still contains %q: %s", bad, got)
		}
	}
}

func TestParseEpub_ConcurrentExtractionKeepsOrder(t *testing.T) {
	files := map[string]string{"META-INF/container.xml": testContainerXML}
	var items [][2]string
	var spine []string
	var want []string
	for n := 40; n >= 1; n-- {
		id := fmt.Sprintf("c%d", n)
		name := fmt.Sprintf("ch%02d.xhtml", n)
		title := fmt.Sprintf("Part %d", n)
		items = append(items, [2]string{id, name})
		spine = append(spine, id)
		want = append(want, title)
		files["OEBPS/"+name] = xhtml(title, longParagraph)
	}
	files["OEBPS/content.opf"] = testOPF(items, spine)

	chapters, err := parseEpubBytes(t, New(nil, Options{EpubWorkers: 3}), buildTestZip(t, files))
	if err != nil {
		t.Fatalf("ParseEpub: %v", err)
	}
	if got := titles(chapters); !equalStrings(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}
}

func TestParseEpub_FormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{
			name:  "missing container",
			files: map[string]string{"OEBPS/content.opf": testOPF(nil, nil)},
		},
		{
			name: "container without full-path",
			files: map[string]string{
				"META-INF/container.xml": `<container><rootfiles><rootfile/></rootfiles></container>`,
			},
		},
		{
			name: "missing package document",
			files: map[string]string{
				"META-INF/container.xml": testContainerXML,
			},
		},
		{
			name: "no spine",
			files: map[string]string{
				"META-INF/container.xml": testContainerXML,
				"OEBPS/content.opf":      `<package><manifest><item id="a" href="a.xhtml"/></manifest></package>`,
			},
		},
		{
			name: "empty spine",
			files: map[string]string{
				"META-INF/container.xml": testContainerXML,
				"OEBPS/content.opf":      testOPF([][2]string{{"a", "a.xhtml"}}, nil),
			},
		},
		{
			name: "package path escapes archive",
			files: map[string]string{
				"META-INF/container.xml": `<container><rootfiles><rootfile full-path="../content.opf"/></rootfiles></container>`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseEpubBytes(t, New(nil, Options{}), buildTestZip(t, tt.files))
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("err = %v, want *FormatError", err)
			}
			if formatErr.Format != FormatEpub {
				t.Errorf("format = %s, want epub", formatErr.Format)
			}
			if formatErr.Hint() == "" {
				t.Error("expected a user-facing hint")
			}
		})
	}
}

func TestParseEpub_NotAZip(t *testing.T) {
	_, err := parseEpubBytes(t, New(nil, Options{}), []byte("definitely not a zip archive"))
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("err = %v, want *FormatError", err)
	}
}

func TestParseEpub_MemberSizeLimit(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF([][2]string{{"c1", "one.xhtml"}}, []string{"c1"}),
		"OEBPS/one.xhtml":        xhtml("One", strings.Repeat(longParagraph, 100)),
	})

	_, err := parseEpubBytes(t, New(nil, Options{MaxMemberBytes: 2048}), data)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("err = %v, want *FormatError", err)
	}
	if !errors.Is(err, errMemberTooLarge) {
		t.Errorf("err = %v, want errMemberTooLarge in chain", err)
	}
}

func TestParseEpub_AllItemsFilteredIsEmptyResult(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF([][2]string{{"cover", "cover.xhtml"}}, []string{"cover"}),
		"OEBPS/cover.xhtml":      xhtml("Cover", "<p>Cover</p>"),
	})

	_, err := parseEpubBytes(t, New(nil, Options{}), data)
	var emptyErr *EmptyResultError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("err = %v, want *EmptyResultError", err)
	}
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		t.Error("empty result must not be reported as a format error")
	}
}
