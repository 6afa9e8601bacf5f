// Package fingerprint derives the cosmetic device id shown next to the wallet.
// It is not used for anything security related.
package fingerprint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/storage"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/sha3"
	"golang.org/x/term"
)

// InstallationKey is the storage key of the random installation id
const InstallationKey = "installation_id"

const (
	canvasProbe = "browse-wallet canvas probe 0123456789 !@#$%^&*()"
	canvasSize  = 64
)

// Hash is a SHA3-256 digest
type Hash [32]byte

func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Signals are the environment inputs of the fingerprint
type Signals struct {
	UserAgent      string
	Locale         string
	Resolution     string
	TimezoneOffset string
	CanvasDigest   string
}

// Compute hashes signals and installID. Identical inputs give identical hashes.
func Compute(s Signals, installID string) Hash {
	joined := strings.Join([]string{
		s.UserAgent,
		s.Locale,
		s.Resolution,
		s.TimezoneOffset,
		s.CanvasDigest,
		installID,
	}, "|")
	return sha3.Sum256([]byte(joined))
}

// CollectSignals reads the local environment. An empty userAgent falls back to
// a runtime description.
func CollectSignals(userAgent string) Signals {
	if userAgent == "" {
		userAgent = fmt.Sprintf("browse-wallet (%s/%s)", runtime.GOOS, runtime.GOARCH)
	}
	digest, err := CanvasDigest(userAgent)
	if err != nil {
		digest = "unavailable"
	}
	return Signals{
		UserAgent:      userAgent,
		Locale:         locale(),
		Resolution:     resolution(),
		TimezoneOffset: timezoneOffset(time.Now()),
		CanvasDigest:   digest,
	}
}

// CanvasDigest renders a QR image of a fixed probe plus seed and hashes its pixels
func CanvasDigest(seed string) (string, error) {
	qr, err := qrcode.New(canvasProbe+seed, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to render canvas: %w", err)
	}
	return hex.EncodeToString(pixelDigest(qr.Image(canvasSize))), nil
}

func pixelDigest(img image.Image) []byte {
	h := sha3.New256()
	b := img.Bounds()
	px := make([]byte, 4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
			h.Write(px)
		}
	}
	return h.Sum(nil)
}

func locale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "C"
}

func resolution() string {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return "unknown"
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return "unknown"
	}
	return strconv.Itoa(w) + "x" + strconv.Itoa(h)
}

// timezoneOffset is minutes west of UTC, the same sign convention browsers use
func timezoneOffset(t time.Time) string {
	_, offset := t.Zone()
	return strconv.Itoa(-offset / 60)
}

// Generator computes fingerprints bound to a persisted installation id
type Generator struct {
	store storage.Store
	newID func() string
}

func NewGenerator(store storage.Store) *Generator {
	return &Generator{store: store, newID: uuid.NewString}
}

// InstallationID returns the stored id, generating and persisting one when absent
func (g *Generator) InstallationID(ctx context.Context) (string, error) {
	data, err := g.store.Get(ctx, InstallationKey)
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to read installation id: %w", err)
	}

	id := g.newID()
	if err := g.store.Put(ctx, InstallationKey, []byte(id)); err != nil {
		return "", fmt.Errorf("failed to store installation id: %w", err)
	}
	return id, nil
}

// Compute returns the fingerprint of s for this installation
func (g *Generator) Compute(ctx context.Context, s Signals) (Hash, error) {
	id, err := g.InstallationID(ctx)
	if err != nil {
		return Hash{}, err
	}
	return Compute(s, id), nil
}
