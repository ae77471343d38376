package batch

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uma-arai/sbcntr-stay/internal/model"
	"gopkg.in/yaml.v3"
)

// StepOp はシナリオの操作種別です
type StepOp string

const (
	OpSelectRole  StepOp = "select_role"
	OpLogin       StepOp = "login"
	OpLogout      StepOp = "logout"
	OpAddProperty StepOp = "add_property"
	OpReserve     StepOp = "reserve"
	OpApprove     StepOp = "approve"
	OpDeny        StepOp = "deny"
	OpCheckIn     StepOp = "check_in"
	OpRate        StepOp = "rate"
)

var knownOps = map[StepOp]bool{
	OpSelectRole:  true,
	OpLogin:       true,
	OpLogout:      true,
	OpAddProperty: true,
	OpReserve:     true,
	OpApprove:     true,
	OpDeny:        true,
	OpCheckIn:     true,
	OpRate:        true,
}

// Step はUIからの1操作に相当します
type Step struct {
	Op         StepOp  `yaml:"op" json:"op"`
	Username   string  `yaml:"username,omitempty" json:"username,omitempty"`
	Password   string  `yaml:"password,omitempty" json:"password,omitempty"`
	Role       string  `yaml:"role,omitempty" json:"role,omitempty"`
	Name       string  `yaml:"name,omitempty" json:"name,omitempty"`
	Price      float64 `yaml:"price,omitempty" json:"price,omitempty"`
	Amenities  string  `yaml:"amenities,omitempty" json:"amenities,omitempty"`
	Capacity   int     `yaml:"capacity,omitempty" json:"capacity,omitempty"`
	Photo      string  `yaml:"photo,omitempty" json:"photo,omitempty"`
	PhotoData  string  `yaml:"photo_base64,omitempty" json:"photo_base64,omitempty"`
	PropertyID int     `yaml:"property_id,omitempty" json:"property_id,omitempty"`
	BookingID  int     `yaml:"booking_id,omitempty" json:"booking_id,omitempty"`
	Stars      int     `yaml:"stars,omitempty" json:"stars,omitempty"`
}

// Scenario はバッチで再生する操作の列です
type Scenario struct {
	Name  string `yaml:"name" json:"name"`
	Steps []Step `yaml:"steps" json:"steps"`

	// baseDir は写真パスの基準ディレクトリです
	baseDir string
}

// LoadScenario はファイルからシナリオを読み込みます
// YAMLとJSONのどちらでも読み込めます
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario はシナリオを解析し、操作種別をチェックします
func ParseScenario(data []byte, baseDir string) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}

	for i, step := range sc.Steps {
		if !knownOps[step.Op] {
			return Scenario{}, fmt.Errorf("step %d: unknown op %q", i+1, step.Op)
		}
	}
	sc.baseDir = baseDir

	return sc, nil
}

// loadPhoto は写真をファイルまたはbase64から読み込みます
// どちらも指定されていない場合はnilを返し、物件登録の検証に任せます
func (s Step) loadPhoto(baseDir string) (*model.Photo, error) {
	switch {
	case s.PhotoData != "":
		data, err := base64.StdEncoding.DecodeString(s.PhotoData)
		if err != nil {
			return nil, fmt.Errorf("failed to decode photo: %w", err)
		}
		return &model.Photo{FileName: "inline", Data: data}, nil
	case s.Photo != "":
		path := s.Photo
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read photo: %w", err)
		}
		return &model.Photo{FileName: filepath.Base(path), Data: data}, nil
	default:
		return nil, nil
	}
}
