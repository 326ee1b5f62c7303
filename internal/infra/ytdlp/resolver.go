// Package ytdlp implements the media resolver collaborator on top of
// yt-dlp via the go-ytdlp wrapper.
package ytdlp

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lrstanley/go-ytdlp"
	zlog "github.com/rs/zerolog/log"

	"github.com/DoriNori7/BnuuyBotGithub/internal/resolve"
)

// Resolver resolves URLs and search strings through yt-dlp. Playlist
// URLs expand to all their items.
type Resolver struct {
	cacheDir string
}

// NewResolver creates a resolver. Downloads, when requested, land in
// cacheDir.
func NewResolver(cacheDir string) *Resolver {
	return &Resolver{cacheDir: cacheDir}
}

// Resolve turns a URL or search string into playable metadata.
func (r *Resolver) Resolve(ctx context.Context, query string, wantDownload bool) (*resolve.Result, error) {
	target := query
	if !strings.HasPrefix(query, "http://") && !strings.HasPrefix(query, "https://") {
		target = "ytsearch1:" + query
	}

	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig().
		FlatPlaylist().
		Print("%(webpage_url)s\t%(title)s\t%(duration)s\t%(playlist_title)s")

	res, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, resolve.NewExtractionError(query, err)
	}

	result := &resolve.Result{}
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 || parts[0] == "" || parts[0] == "NA" {
			continue
		}
		m := resolve.Metadata{SourceURL: parts[0], Title: parts[1]}
		if secs, err := strconv.ParseFloat(parts[2], 64); err == nil {
			m.DurationSeconds = int(secs)
		}
		if len(parts) >= 4 && parts[3] != "" && parts[3] != "NA" {
			result.Title = parts[3]
		}
		result.Entries = append(result.Entries, m)
	}
	if len(result.Entries) == 0 {
		return nil, resolve.NewExtractionError(query, errors.New("no playable entries extracted"))
	}

	if wantDownload && !result.IsPlaylist() {
		if err := r.download(ctx, result.Entries[0].SourceURL); err != nil {
			// Metadata is still usable; streaming falls back to the URL.
			zlog.Warn().Err(err).Str("url", result.Entries[0].SourceURL).
				Msg("ytdlp: predownload failed, will stream instead")
		}
	}
	return result, nil
}

func (r *Resolver) download(ctx context.Context, url string) error {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig().
		Format("bestaudio/best").
		Output(filepath.Join(r.cacheDir, "%(id)s.%(ext)s"))

	_, err := cmd.Run(ctx, url)
	return errors.Wrap(err, "download failed")
}
