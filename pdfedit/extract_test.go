package pdfedit

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestExtractFirstPage_HelloWorld(t *testing.T) {
	data := makePDF(t, textAt{x: 72, y: 100, size: 14, str: "Hello World"})
	rz := &pageRasterizer{}

	page, err := NewExtractor(rz).ExtractFirstPage(context.Background(), data, 1.3)
	assertNoErr(t, err)

	if len(page.Runs) != 1 {
		t.Fatalf("runs = %+v, want one", page.Runs)
	}
	run := page.Runs[0]
	if run.Str != "Hello World" {
		t.Errorf("Str = %q", run.Str)
	}
	assertNear(t, "X", run.X, 72*1.3)
	assertNear(t, "Y", run.Y, 100*1.3)
	assertNear(t, "FontSize", run.FontSize, 14*1.3)
	assertNear(t, "Height", run.Height, 1.2*14*1.3)
	if run.Width <= 0 {
		t.Errorf("Width = %v, want positive", run.Width)
	}
	if !regexp.MustCompile(`^[0-9a-z]{7}$`).MatchString(run.ID) {
		t.Errorf("ID = %q, want 7 lowercase alphanumerics", run.ID)
	}
	if page.Raster.Height != 1094 || page.Scale != 1.3 {
		t.Errorf("raster %dx%d scale %v", page.Raster.Width, page.Raster.Height, page.Scale)
	}
}

func TestExtractFirstPage_SeparateRuns(t *testing.T) {
	data := makePDF(t,
		textAt{x: 72, y: 100, size: 14, str: "Title"},
		textAt{x: 72, y: 200, size: 10, str: "Body line"},
		textAt{x: 400, y: 200, size: 10, str: "Far right"},
	)
	page, err := NewExtractor(&pageRasterizer{}).ExtractFirstPage(context.Background(), data, 1)
	assertNoErr(t, err)

	var got []string
	for _, r := range page.Runs {
		got = append(got, r.Str)
	}
	want := []string{"Title", "Body line", "Far right"}
	if len(got) != len(want) {
		t.Fatalf("runs = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d = %q, want %q", i, got[i], want[i])
		}
	}
	seen := map[string]bool{}
	for _, r := range page.Runs {
		if seen[r.ID] {
			t.Errorf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestExtractFirstPage_DefaultScale(t *testing.T) {
	data := makePDF(t, textAt{x: 10, y: 20, size: 12, str: "x"})
	page, err := NewExtractor(&pageRasterizer{}).ExtractFirstPage(context.Background(), data, 0)
	assertNoErr(t, err)
	if page.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", page.Scale, DefaultScale)
	}
}

func TestExtractFirstPage_RejectsHugeScale(t *testing.T) {
	data := makePDF(t, textAt{x: 10, y: 20, size: 12, str: "x"})
	rz := &pageRasterizer{}
	_, err := NewExtractor(rz).ExtractFirstPage(context.Background(), data, 1000)
	if !errors.Is(err, ErrScaleRange) {
		t.Fatalf("err = %v, want ErrScaleRange", err)
	}
	if rz.calls != 0 {
		t.Errorf("rasterizer called %d times, want 0", rz.calls)
	}
	if !strings.Contains(err.Error(), "max 8") {
		t.Errorf("err = %v, want the limit named", err)
	}
}

func TestSessionRender_RejectsHugeScale(t *testing.T) {
	data := makePDF(t, textAt{x: 10, y: 20, size: 12, str: "x"})
	sess, err := Open(context.Background(), NewExtractor(&pageRasterizer{}), "a.pdf", data, 1)
	assertNoErr(t, err)
	if err := sess.Render(context.Background(), 50); !errors.Is(err, ErrScaleRange) {
		t.Fatalf("err = %v, want ErrScaleRange", err)
	}
	if got := sess.Snapshot().Scale; got != 1 {
		t.Errorf("Scale after rejected render = %v, want 1", got)
	}
}

func TestExtractFirstPage_NotAPDF(t *testing.T) {
	_, err := NewExtractor(&pageRasterizer{}).ExtractFirstPage(context.Background(), []byte("nope"), 1)
	if !errors.Is(err, ErrInvalidPDF) {
		t.Fatalf("err = %v, want ErrInvalidPDF", err)
	}
}

func TestExtractFirstPage_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data := makePDF(t, textAt{x: 10, y: 20, size: 12, str: "x"})
	_, err := NewExtractor(&pageRasterizer{}).ExtractFirstPage(ctx, data, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNewRun_ApproximatesMissingWidth(t *testing.T) {
	run := newRun("abc", textItem{Matrix: Matrix{10, 0, 0, 10, 5, 90}, Str: "abcd"}, 2, 200)
	if run.Width != ApproxWidth(20, 4) {
		t.Errorf("Width = %v, want %v", run.Width, ApproxWidth(20, 4))
	}
	if run.X != 10 || run.Y != 20 || run.FontSize != 20 {
		t.Errorf("run = %+v", run)
	}
	measured := newRun("abc", textItem{Matrix: Matrix{10, 0, 0, 10, 5, 90}, Str: "abcd", Width: 30}, 2, 200)
	if measured.Width != 60 {
		t.Errorf("measured Width = %v, want 60", measured.Width)
	}
}
