package markdown

import (
	"context"
	"errors"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// ErrServiceDisabled indicates the markdown feature is disabled.
var ErrServiceDisabled = errors.New("markdown service: disabled")

// NewDisabledService returns a MarkdownService that fails all operations
// with ErrServiceDisabled.
func NewDisabledService() interfaces.MarkdownService {
	return disabledService{}
}

type disabledService struct{}

var _ interfaces.MarkdownService = disabledService{}

func (disabledService) Load(context.Context, string, interfaces.LoadOptions) (*interfaces.Document, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) LoadDirectory(context.Context, string, interfaces.LoadOptions) ([]*interfaces.Document, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Render(context.Context, []byte, interfaces.ParseOptions) ([]byte, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) RenderDocument(context.Context, *interfaces.Document, interfaces.ParseOptions) ([]byte, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Import(context.Context, *interfaces.Document, interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) ImportDirectory(context.Context, string, interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Sync(context.Context, string, interfaces.SyncOptions) (*interfaces.SyncResult, error) {
	return nil, ErrServiceDisabled
}
