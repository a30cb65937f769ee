package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"scrollback/internal/services"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLoadImageReadsDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, encodePNG(t, 40, 80), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if img.Width != 40 || img.Height != 80 || img.Format != "png" || img.Name != "shot.png" {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestLoadImageRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadImage(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRegionClampsToImage(t *testing.T) {
	img := &Image{Width: 100, Height: 50}
	block := TextBlock{Box: [4]Point{{X: 5, Y: 2}, {X: 95, Y: 2}, {X: 95, Y: 20}, {X: 5, Y: 20}}}
	got := img.Region(block, 10)
	want := image.Rect(0, 0, 100, 30)
	if got != want {
		t.Fatalf("Region = %v, want %v", got, want)
	}
}

func TestCropProducesPNGOfRegion(t *testing.T) {
	data := encodePNG(t, 60, 60)
	img, err := DecodeImage("shot.png", data, "")
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	crop, err := Crop(img, image.Rect(10, 20, 30, 50))
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if crop.Width != 20 || crop.Height != 30 || crop.Format != "png" {
		t.Fatalf("unexpected crop: %+v", crop)
	}
	decoded, err := png.Decode(bytes.NewReader(crop.Data))
	if err != nil {
		t.Fatalf("decode crop: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 20 || b.Dy() != 30 {
		t.Fatalf("crop bounds = %v", b)
	}
	if _, err := Crop(img, image.Rectangle{}); err == nil {
		t.Fatal("expected error for empty region")
	}
}

func TestBlockGeometry(t *testing.T) {
	block := TextBlock{Box: [4]Point{{X: 10, Y: 100}, {X: 50, Y: 100}, {X: 50.5, Y: 120}, {X: 10, Y: 120}}}
	if block.CenterX() != 30.25 || block.CenterY() != 110 {
		t.Fatalf("center = (%v, %v)", block.CenterX(), block.CenterY())
	}
	minX, minY, maxX, maxY := block.Bounds()
	if minX != 10 || minY != 100 || maxX != 51 || maxY != 120 {
		t.Fatalf("bounds = %d %d %d %d", minX, minY, maxX, maxY)
	}
}

func TestHTTPDetectorDetect(t *testing.T) {
	data := encodePNG(t, 8, 8)
	var gotReq detectRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ocr" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"code":100,"data":[
			{"text":"2025-6-18 20:03","box":[[40,10],[80,10],[80,20],[40,20]],"score":0.98},
			{"text":"bad box","box":[[1,1]],"score":0.5},
			{"text":"吃饭了吗","box":[[10,40],[50,40],[50,60],[10,60]],"score":0.91}
		]}`))
	}))
	defer srv.Close()

	det := NewHTTPDetector(HTTPConfig{BaseURL: srv.URL + "/", Language: "ja"})
	blocks, err := det.Detect(context.Background(), &Image{Name: "a.png", Data: data})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if gotReq.Base64 != base64.StdEncoding.EncodeToString(data) {
		t.Fatal("image not sent as base64")
	}
	if gotReq.Options["data.format"] != "dict" || gotReq.Options["ocr.language"] != "models/config_japan.txt" {
		t.Fatalf("unexpected options: %v", gotReq.Options)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[1].Text != "吃饭了吗" || blocks[1].Confidence != 0.91 || blocks[1].Box[2] != (Point{X: 50, Y: 60}) || blocks[1].Pass != "ja" {
		t.Fatalf("unexpected block: %+v", blocks[1])
	}
}

func TestHTTPDetectorNoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":101,"data":""}`))
	}))
	defer srv.Close()

	blocks, err := NewHTTPDetector(HTTPConfig{BaseURL: srv.URL}).Detect(context.Background(), &Image{Name: "a.png", Data: []byte{1}})
	if err != nil || len(blocks) != 0 {
		t.Fatalf("expected empty result, got %v, %v", blocks, err)
	}
}

func TestHTTPDetectorErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		marker error
	}{
		{name: "http status", status: http.StatusInternalServerError, body: "boom", marker: services.ErrExternalTool},
		{name: "service code", status: http.StatusOK, body: `{"code":902,"data":"model missing"}`, marker: services.ErrExternalTool},
		{name: "bad json", status: http.StatusOK, body: `{`, marker: services.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPDetector(HTTPConfig{BaseURL: srv.URL}).Detect(context.Background(), &Image{Name: "a.png", Data: []byte{1}})
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestHTTPDetectorHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	det := NewHTTPDetector(HTTPConfig{BaseURL: srv.URL})
	if err := det.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	healthy = false
	if err := det.Health(context.Background()); err == nil {
		t.Fatal("expected unhealthy error")
	}
}
