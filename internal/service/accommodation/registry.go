package accommodation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/uma-arai/sbcntr-stay/internal/model"
)

// ownerID は今回のスコープで唯一のオーナーです
const ownerID = 1

// Registry は物件カタログを保持します
// 物件の更新・削除は提供しません
type Registry struct {
	properties  []model.Property
	newPhotoRef func() string
}

// NewRegistry は空のRegistryを作成します
func NewRegistry() *Registry {
	return &Registry{
		newPhotoRef: func() string { return "blob:" + uuid.NewString() },
	}
}

// Add は入力値を検証して物件を登録します
// 検証エラーの場合は何も登録しません
func (r *Registry) Add(in model.PropertyInput) (model.Property, error) {
	if err := in.Validate(); err != nil {
		return model.Property{}, err
	}
	in = in.Normalize()

	p := model.Property{
		ID:        len(r.properties) + 1,
		Name:      in.Name,
		Price:     in.Price,
		Amenities: in.Amenities,
		Capacity:  in.Capacity,
		PhotoRef:  r.newPhotoRef(),
		OwnerID:   ownerID,
	}
	r.properties = append(r.properties, p)

	return p, nil
}

// Get は指定されたIDの物件を返します
func (r *Registry) Get(id int) (model.Property, error) {
	for _, p := range r.properties {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Property{}, fmt.Errorf("%w: property %d", model.ErrNotFound, id)
}

// List は登録順の物件一覧のコピーを返します
func (r *Registry) List() []model.Property {
	out := make([]model.Property, len(r.properties))
	copy(out, r.properties)
	return out
}
