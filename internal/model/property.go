package model

import (
	"fmt"
	"math"
	"net/http"
	"strings"
)

const (
	// DefaultAmenities は設備が未入力の場合の値です
	DefaultAmenities = "N/A"
	// DefaultCapacity は定員が未入力の場合の値です
	DefaultCapacity = 1
)

// Property は登録済みの物件です
// 登録後は変更されません
type Property struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Amenities  string  `json:"amenities"`
	Capacity   int     `json:"capacity"`
	PhotoRef   string  `json:"photo_ref"`
	OwnerID    int     `json:"owner_id"`
	BookingIDs []int   `json:"booking_ids"`
}

// Photo は物件写真として渡される画像リソースです
type Photo struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// PropertyInput は物件登録フォームの入力値です
type PropertyInput struct {
	Name      string
	Price     float64
	Amenities string
	Capacity  int
	Photo     *Photo
}

// Validate は必須項目をチェックします
func (in PropertyInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if !(in.Price > 0) || math.IsInf(in.Price, 0) {
		missing = append(missing, "price")
	}
	if in.Photo == nil || len(in.Photo.Data) == 0 {
		missing = append(missing, "photo")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: property %s required", ErrValidation, strings.Join(missing, ", "))
	}

	if in.Capacity < 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrValidation, in.Capacity)
	}

	if ct := in.Photo.DetectContentType(); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: photo must be an image, got %s", ErrValidation, ct)
	}

	return nil
}

// Normalize は任意項目にデフォルト値を設定します
func (in PropertyInput) Normalize() PropertyInput {
	in.Name = strings.TrimSpace(in.Name)
	if strings.TrimSpace(in.Amenities) == "" {
		in.Amenities = DefaultAmenities
	}
	if in.Capacity == 0 {
		in.Capacity = DefaultCapacity
	}
	return in
}

// DetectContentType は宣言されたContent-Typeを優先し、なければ中身から判定します
func (p *Photo) DetectContentType() string {
	if p.ContentType != "" {
		return p.ContentType
	}
	return http.DetectContentType(p.Data)
}
