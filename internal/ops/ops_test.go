package ops

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"filectl/internal/model"
	"filectl/internal/plan"
)

func sampleJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode sample jpeg: %v", err)
	}
	return buf.Bytes()
}

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestExecuteFlatten_CopiesWithoutRemovingSource(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")
	src := filepath.Join(root, "a", "1.jpg")
	mustWrite(t, src, sampleJPEG(t, 8, 8))

	req := FlattenRequest{
		FlattenRequest: plan.FlattenRequest{
			Entries:        []model.FileEntry{{Path: src}},
			InputDir:       root,
			OutputDir:      out,
			ConflictPolicy: model.ConflictSequence,
			At:             time.Now(),
		},
		Workers: 2,
	}

	bus, resultCh, err := ExecuteFlatten(context.Background(), req)
	if err != nil {
		t.Fatalf("ExecuteFlatten: %v", err)
	}
	for range bus.Events() {
	}
	final := <-resultCh

	if final.Succeeded != 1 || final.Failed != 0 {
		t.Fatalf("got %+v", final)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should still exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "1.jpg")); err != nil {
		t.Fatalf("destination should exist: %v", err)
	}
}

func TestExecuteDelete_TrashRequiresTrashFunc(t *testing.T) {
	req := DeleteRequest{
		DeleteRequest: plan.DeleteRequest{
			Entries:    []model.FileEntry{{Path: "/tmp/x.tmp"}},
			Extensions: model.NewExtensionSet("tmp"),
			Mode:       plan.DeleteTrash,
		},
	}
	_, _, err := ExecuteDelete(context.Background(), req)
	if err == nil {
		t.Fatalf("expected error when trash mode has no TrashFunc")
	}
}

func TestExecuteDelete_DirectRemovesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.tmp")
	mustWrite(t, src, []byte("x"))

	req := DeleteRequest{
		DeleteRequest: plan.DeleteRequest{
			Entries:    []model.FileEntry{{Path: src}},
			Extensions: model.NewExtensionSet("tmp"),
			Mode:       plan.DeleteDirect,
		},
	}
	bus, resultCh, err := ExecuteDelete(context.Background(), req)
	if err != nil {
		t.Fatalf("ExecuteDelete: %v", err)
	}
	for range bus.Events() {
	}
	final := <-resultCh
	if final.Succeeded != 1 {
		t.Fatalf("got %+v", final)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err = %v", err)
	}
}

func TestExecuteRename_InPlaceRenamesFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "IMG.JPG")
	mustWrite(t, src, sampleJPEG(t, 8, 8))

	req := RenameRequest{
		RenameRequest: plan.RenameRequest{
			Entries:        []model.FileEntry{{Path: src, Modified: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}},
			Template:       "{capture_date:YYYY-MM-DD}",
			Mode:           plan.ModeModifiedOnly,
			ConflictPolicy: model.ConflictSequence,
			ExecTime:       time.Now(),
		},
	}
	bus, resultCh, err := ExecuteRename(context.Background(), req)
	if err != nil {
		t.Fatalf("ExecuteRename: %v", err)
	}
	for range bus.Events() {
	}
	final := <-resultCh
	if final.Succeeded != 1 {
		t.Fatalf("got %+v", final)
	}
	want := filepath.Join(dir, "2024-01-02.JPG")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected renamed file at %s: %v", want, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected original name gone, stat err = %v", err)
	}
}

func TestExecuteCompress_EmitsEstimateThenShrinksFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	src := filepath.Join(dir, "a.jpg")
	mustWrite(t, src, sampleJPEG(t, 64, 64))
	srcInfo, _ := os.Stat(src)

	req := CompressRequest{
		CompressRequest: plan.CompressRequest{
			Entries:        []model.FileEntry{{Path: src, Size: uint64(srcInfo.Size())}},
			InputDir:       dir,
			OutputDir:      out,
			ConflictPolicy: model.ConflictSequence,
			ResizePercent:  50,
			Quality:        30,
			At:             time.Now(),
		},
	}

	bus, resultCh, err := ExecuteCompress(context.Background(), req)
	if err != nil {
		t.Fatalf("ExecuteCompress: %v", err)
	}
	var sawEstimate bool
	for ev := range bus.Events() {
		if ev.Operation == "compress-estimate-progress" {
			sawEstimate = true
		}
	}
	if !sawEstimate {
		t.Fatalf("expected at least one compress-estimate-progress event")
	}
	final := <-resultCh
	if final.Succeeded != 1 {
		t.Fatalf("got %+v", final)
	}
	dstInfo, err := os.Stat(filepath.Join(out, "a.jpg"))
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	if dstInfo.Size() >= srcInfo.Size() {
		t.Fatalf("expected compressed file smaller than source: dst=%d src=%d", dstInfo.Size(), srcInfo.Size())
	}
}
