package services

import (
	"bytes"
	"fmt"
	"image/color"
	"math/rand"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/gcp"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

const avatarSize = 512

type AvatarService interface {
	// CreateAndUploadUserAvatar renders the initials avatar, uploads it and
	// points user at the new object. The previous object is removed
	// best-effort.
	CreateAndUploadUserAvatar(dbc dbctx.Context, user *types.User) error
	GenerateUserAvatar(user *types.User) (bytes.Buffer, error)
}

type avatarService struct {
	log           *logger.Logger
	bucketService gcp.BucketService

	palette    []color.NRGBA
	colorByHex map[string]color.NRGBA

	fontFace font.Face
}

var defaultAvatarPalette = []color.NRGBA{
	{R: 0xE5, G: 0x73, B: 0x73, A: 0xFF},
	{R: 0xF0, G: 0x62, B: 0x92, A: 0xFF},
	{R: 0xBA, G: 0x68, B: 0xC8, A: 0xFF},
	{R: 0x95, G: 0x75, B: 0xCD, A: 0xFF},
	{R: 0x79, G: 0x86, B: 0xCB, A: 0xFF},
	{R: 0x64, G: 0xB5, B: 0xF6, A: 0xFF},
	{R: 0x4D, G: 0xB6, B: 0xAC, A: 0xFF},
	{R: 0x81, G: 0xC7, B: 0x84, A: 0xFF},
	{R: 0xFF, G: 0xB7, B: 0x4D, A: 0xFF},
	{R: 0xA1, G: 0x88, B: 0x7F, A: 0xFF},
}

// NewAvatarService loads the bundled Go Bold face unless AVATAR_FONT points
// at another TTF file.
func NewAvatarService(log *logger.Logger, bucketService gcp.BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontBytes := gobold.TTF
	if fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT")); fontPath != "" {
		raw, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read avatar font: %w", err)
		}
		fontBytes = raw
		serviceLog.Info("Loaded avatar font", "font", fontPath)
	}
	face, err := loadFontFace(fontBytes, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	colorByHex := make(map[string]color.NRGBA, len(defaultAvatarPalette))
	for _, c := range defaultAvatarPalette {
		colorByHex[nrgbaToHex(c)] = c
	}

	return &avatarService{
		log:           serviceLog,
		bucketService: bucketService,
		palette:       defaultAvatarPalette,
		colorByHex:    colorByHex,
		fontFace:      face,
	}, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(dbc dbctx.Context, user *types.User) error {
	if user == nil {
		return fmt.Errorf("user required")
	}
	buf, err := as.GenerateUserAvatar(user)
	if err != nil {
		return err
	}

	oldKey := strings.TrimSpace(user.AvatarBucketKey)
	// Versioned key so CDNs never serve a stale avatar.
	newKey := fmt.Sprintf("%s/%d.png", user.ID.String(), time.Now().UnixNano())

	if err := as.bucketService.UploadFile(dbc, gcp.BucketCategoryAvatar, newKey, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}
	user.AvatarBucketKey = newKey
	user.AvatarURL = as.bucketService.GetPublicURL(gcp.BucketCategoryAvatar, newKey)

	if oldKey != "" && oldKey != newKey {
		if err := as.bucketService.DeleteFile(dbctx.Context{Ctx: dbc.Ctx}, gcp.BucketCategoryAvatar, oldKey); err != nil {
			as.log.Warn("failed to delete old avatar (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
	as.ensureUserAvatarColor(user)

	dc := gg.NewContext(avatarSize, avatarSize)
	dc.DrawCircle(float64(avatarSize)/2, float64(avatarSize)/2, float64(avatarSize)/2)
	dc.Clip()

	dc.SetColor(as.colorByHex[user.AvatarColor])
	dc.DrawRectangle(0, 0, float64(avatarSize), float64(avatarSize))
	dc.Fill()

	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(computeInitials(user.Name), float64(avatarSize)/2, float64(avatarSize)/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (as *avatarService) ensureUserAvatarColor(user *types.User) {
	if h := normalizeHex(user.AvatarColor); h != "" {
		if _, ok := as.colorByHex[h]; ok {
			user.AvatarColor = h
			return
		}
	}
	user.AvatarColor = nrgbaToHex(as.palette[rand.Intn(len(as.palette))])
}

func normalizeHex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 7 {
		return ""
	}
	return s
}

func nrgbaToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// computeInitials takes the first letter of the first and last word of name.
func computeInitials(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	if len(words) == 0 {
		return "?"
	}
	first := firstLetter(words[0])
	if len(words) == 1 {
		return first
	}
	return first + firstLetter(words[len(words)-1])
}

func firstLetter(word string) string {
	r, _ := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return "?"
	}
	return strings.ToUpper(string(r))
}

func loadFontFace(fontBytes []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
