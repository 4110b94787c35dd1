package drive

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"driveinvoice/internal"
	"driveinvoice/internal/config"
	"driveinvoice/internal/connectors"
)

type Connector struct {
	service  *drive.Service
	pageSize int64
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("GDRIVE_CLIENT_ID", cfg.DriveClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GDRIVE_CLIENT_SECRET", cfg.DriveClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GDRIVE_REFRESH_TOKEN", cfg.DriveRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.DriveClientID,
		ClientSecret: cfg.DriveClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.DriveRedirectURI,
		Scopes:       []string{drive.DriveReadonlyScope},
	}

	tokenSource := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.DriveRefreshToken})
	svc, err := drive.NewService(context.Background(), option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	pageSize := int64(cfg.DrivePageSize)
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Connector{service: svc, pageSize: pageSize}, nil
}

// ListFolder returns the non-trashed PDF children of a folder.
func (c *Connector) ListFolder(ctx context.Context, folderID string) ([]internal.RemoteFile, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false and mimeType = 'application/pdf'", folderID)

	var out []internal.RemoteFile
	pageToken := ""
	for {
		call := c.service.Files.List().
			Context(ctx).
			Q(query).
			Spaces("drive").
			PageSize(c.pageSize).
			Fields("nextPageToken, files(id, name, mimeType, md5Checksum, modifiedTime)")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, &connectors.FetchError{Op: "list", Err: err}
		}

		for _, f := range resp.Files {
			out = append(out, internal.RemoteFile{
				ID:           f.Id,
				Name:         f.Name,
				MimeType:     f.MimeType,
				MD5Checksum:  f.Md5Checksum,
				ModifiedTime: f.ModifiedTime,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return out, nil
}

func (c *Connector) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, &connectors.FetchError{Op: "download", FileID: fileID, Err: err}
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &connectors.FetchError{Op: "download", FileID: fileID, Err: err}
	}
	return blob, nil
}
