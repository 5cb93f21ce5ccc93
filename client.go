package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/putdotio/go-putio/putio"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// error_type reported by the API when a sibling with the same name exists
const nameAlreadyExists = "NAME_ALREADY_EXIST"

// Entry is one remote node as seen through the gateway.
type Entry struct {
	ID   int64
	Name string
	Dir  bool
	Size int64
}

// FileClient is the remote filesystem surface the uploader needs.
// PutioGateway talks to the real API; MockFileClient stands in for tests.
type FileClient interface {
	CreateFolder(ctx context.Context, name string, parentID int64) (Entry, error)
	UploadFile(ctx context.Context, path string, parentID int64) (Entry, error)
	ListChildren(ctx context.Context, parentID int64) ([]Entry, error)
	Delete(ctx context.Context, id int64) error
}

// PutioGateway adapts the put.io SDK to FileClient, normalizing its error
// vocabulary into the CLI taxonomy. No retries happen at this layer.
type PutioGateway struct {
	Client *putio.Client
}

func NewPutioGateway(accessToken string) *PutioGateway {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	oauthClient := oauth2.NewClient(context.Background(), tokenSource)
	return &PutioGateway{Client: putio.NewClient(oauthClient)}
}

func (g *PutioGateway) CreateFolder(ctx context.Context, name string, parentID int64) (Entry, error) {
	log.Debug(fmt.Sprintf("Creating remote folder %s under %d", name, parentID))
	folder, err := g.Client.Files.CreateFolder(ctx, name, parentID)
	if err != nil {
		if perr, ok := err.(*putio.ErrorResponse); ok && perr.Type == nameAlreadyExists {
			return Entry{}, &NameClashError{Name: name, ParentID: parentID}
		}
		return Entry{}, &UnknownAPIError{
			Context: fmt.Sprintf("Creating folder `%s` in `%d`", name, parentID),
			Err:     err,
		}
	}
	return entryFromFile(folder), nil
}

func (g *PutioGateway) UploadFile(ctx context.Context, path string, parentID int64) (Entry, error) {
	log.Debug(fmt.Sprintf("Uploading %s to %d", path, parentID))
	apiErr := &UnknownAPIError{
		Context: fmt.Sprintf("Uploading file at `%s` to `%d`", path, parentID),
	}

	fd, openErr := os.Open(path)
	if openErr != nil {
		apiErr.Err = openErr
		return Entry{}, apiErr
	}
	defer fd.Close()

	upload, err := g.Client.Files.Upload(ctx, fd, filepath.Base(path), parentID)
	if err != nil {
		apiErr.Err = err
		return Entry{}, apiErr
	}
	if upload.File == nil {
		apiErr.Err = fmt.Errorf("no file entry in upload response")
		return Entry{}, apiErr
	}

	return entryFromFile(*upload.File), nil
}

func (g *PutioGateway) ListChildren(ctx context.Context, parentID int64) ([]Entry, error) {
	children, _, err := g.Client.Files.List(ctx, parentID)
	if err != nil {
		return nil, &UnknownAPIError{
			Context: fmt.Sprintf("Listing children of `%d`", parentID),
			Err:     err,
		}
	}

	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		entries = append(entries, entryFromFile(child))
	}
	return entries, nil
}

func (g *PutioGateway) Delete(ctx context.Context, id int64) error {
	log.Debug(fmt.Sprintf("Deleting remote entry %d", id))
	if err := g.Client.Files.Delete(ctx, id); err != nil {
		return &UnknownAPIError{
			Context: fmt.Sprintf("Deleting entry `%d`", id),
			Err:     err,
		}
	}
	return nil
}

func entryFromFile(file putio.File) Entry {
	return Entry{
		ID:   file.ID,
		Name: file.Name,
		Dir:  file.IsDir(),
		Size: file.Size,
	}
}
