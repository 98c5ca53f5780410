package model

import "fmt"

type LengthScaleKind string

const (
	LengthScaleNone           LengthScaleKind = ""
	LengthScaleLength         LengthScaleKind = "LENGTH"
	LengthScalePrecisionScale LengthScaleKind = "PRECISION_SCALE"
)

// LengthScale 列类型的长度或精度，三选一：无 / length / precision+scale
type LengthScale struct {
	Kind      LengthScaleKind `gorm:"column:kind;size:16" json:"kind,omitempty"`
	Length    int             `gorm:"column:length" json:"length,omitempty"`
	Precision int             `gorm:"column:precision" json:"precision,omitempty"`
	Scale     int             `gorm:"column:scale" json:"scale,omitempty"`
}

func NoLengthScale() LengthScale {
	return LengthScale{}
}

func Length(n int) LengthScale {
	return LengthScale{Kind: LengthScaleLength, Length: n}
}

func PrecisionScale(precision, scale int) LengthScale {
	return LengthScale{Kind: LengthScalePrecisionScale, Precision: precision, Scale: scale}
}

func (ls LengthScale) IsNone() bool {
	return ls.Kind == LengthScaleNone
}

// Normalize 清理与 Kind 不符的字段
func (ls LengthScale) Normalize() LengthScale {
	switch ls.Kind {
	case LengthScaleLength:
		return Length(ls.Length)
	case LengthScalePrecisionScale:
		return PrecisionScale(ls.Precision, ls.Scale)
	}
	return NoLengthScale()
}

func (ls LengthScale) String() string {
	switch ls.Kind {
	case LengthScaleLength:
		return fmt.Sprintf("(%d)", ls.Length)
	case LengthScalePrecisionScale:
		return fmt.Sprintf("(%d,%d)", ls.Precision, ls.Scale)
	}
	return ""
}
