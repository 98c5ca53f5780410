package strgen

import (
	"encoding/hex"

	"github.com/google/uuid"
)

type UUIDOptions struct {
	Version     string `cfg:"version" def:"v7" validate:"omitempty,oneof=v4 v6 v7"`
	WithHyphens bool   `cfg:"withHyphens"`
}

type UUIDGenerator struct {
	version     string
	withHyphens bool
}

func NewUUIDGeneratorWithOptions(options *UUIDOptions) *UUIDGenerator {
	if options == nil {
		options = &UUIDOptions{}
	}
	version := options.Version
	if version == "" {
		version = "v7"
	}
	return &UUIDGenerator{
		version:     version,
		withHyphens: options.WithHyphens,
	}
}

func (g *UUIDGenerator) Generate() string {
	var u uuid.UUID
	switch g.version {
	case "v4":
		u = uuid.New()
	case "v6":
		u = uuid.Must(uuid.NewV6())
	default:
		u = uuid.Must(uuid.NewV7())
	}

	if g.withHyphens {
		return u.String()
	}
	return hex.EncodeToString(u[:])
}
