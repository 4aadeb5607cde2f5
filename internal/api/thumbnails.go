package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/eagle-green/mysked/internal/cache"
	"github.com/eagle-green/mysked/internal/imaging"
	"github.com/eagle-green/mysked/internal/upstream"
)

// AssetsTag tags cached thumbnails.
const AssetsTag = "assets/thumbnails"

// AssetSource fetches raw asset images. *upstream.Client implements it.
type AssetSource interface {
	Asset(ctx context.Context, src string, allowed []string) ([]byte, error)
}

// ThumbnailHandler serves downscaled cover images of allowed asset hosts.
type ThumbnailHandler struct {
	Assets       AssetSource
	Cache        cache.Cache
	AllowedHosts []string
	Size         int
	TTL          time.Duration
}

// ThumbnailTTL is how long rendered thumbnails stay cached.
const ThumbnailTTL = 24 * time.Hour

// NewThumbnailHandler builds the thumbnail handler from the shared
// dependencies. A nil cache disables caching.
func NewThumbnailHandler(d Deps) *ThumbnailHandler {
	c := d.Cache
	if c == nil {
		c = cache.Nop{}
	}
	return &ThumbnailHandler{
		Assets:       d.Assets,
		Cache:        c,
		AllowedHosts: d.Config.Assets.AllowedHosts,
		Size:         d.Config.Assets.ThumbnailSize,
		TTL:          ThumbnailTTL,
	}
}

// Get returns a JPEG thumbnail of the image at ?src=.
func (h *ThumbnailHandler) Get(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	u, err := url.Parse(src)
	if err != nil || src == "" || !upstream.HostAllowed(u.Hostname(), h.AllowedHosts) {
		jsonError(w, http.StatusBadRequest, "src must be an image on an allowed asset host")
		return
	}

	key := cache.Key(cache.KeyParts{Endpoint: "thumbnail", ID: src, Limit: h.Size})
	data, ok, err := h.Cache.Get(r.Context(), key)
	if err != nil {
		slog.WarnContext(r.Context(), "reading thumbnail cache", "error", err)
	}
	if !ok {
		data, err = h.render(r.Context(), src)
		if err != nil {
			var se *upstream.StatusError
			switch {
			case errors.As(err, &se):
				jsonError(w, http.StatusBadGateway, "asset host returned an error")
			case errors.Is(err, errNotAnImage):
				jsonError(w, http.StatusUnprocessableEntity, "asset is not a supported image")
			default:
				slog.WarnContext(r.Context(), "fetching asset", "src", src, "error", err)
				jsonError(w, http.StatusBadGateway, "failed to fetch asset")
			}
			return
		}
		if err := h.Cache.Set(r.Context(), key, AssetsTag, data, h.TTL); err != nil {
			slog.WarnContext(r.Context(), "writing thumbnail cache", "error", err)
		}
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

var errNotAnImage = errors.New("not an image")

func (h *ThumbnailHandler) render(ctx context.Context, src string) ([]byte, error) {
	raw, err := h.Assets.Asset(ctx, src, h.AllowedHosts)
	if err != nil {
		return nil, err
	}
	thumb, err := imaging.MakeThumbnail(raw, h.Size)
	if err != nil {
		return nil, errors.Join(errNotAnImage, err)
	}
	return thumb.Data, nil
}
