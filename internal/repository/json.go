package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/config"
	"github.com/localwire/portal/internal/model"
)

var (
	errTableFileIsDir = errors.New("table file is dir")
)

type Data struct {
	Messages []model.Message `json:"messages"`
}

type jsonRepo struct {
	path string
	log  *zap.Logger

	mu   sync.Mutex
	data *Data
}

type jsonParams struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Log    *zap.Logger
}

func NewJSON(p jsonParams) (Repository, error) {
	r := &jsonRepo{
		path: p.Config.JSONRepo.Path,
		log:  p.Log,
		data: &Data{},
	}

	err := r.readfile()
	if err != nil {
		// only log, data will be empty and will overwrite when
		// the service is stopped
		r.log.Warn("failed reading json repo data file", zap.Error(err))
	}

	p.LC.Append(fx.Hook{
		OnStop: r.stop,
	})

	return r, nil
}

func (r *jsonRepo) stop(_ context.Context) error {
	return r.writefile()
}

func (r *jsonRepo) readfile() error {
	finfo, err := os.Stat(r.path)
	if err != nil {
		return err
	}

	if finfo.IsDir() {
		return errTableFileIsDir
	}

	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(&r.data)
}

func (r *jsonRepo) writefile() error {
	f, err := os.Create(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r.mu.Lock()
	b, err := json.MarshalIndent(r.data, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return err
	}

	_, err = f.Write(b)
	return err
}

func (r *jsonRepo) AddMessage(_ context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Messages = append(r.data.Messages, *msg)
	return nil
}

func (r *jsonRepo) GetMessage(_ context.Context, id string) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.data.Messages {
		if m.ID == id {
			return &m, nil
		}
	}

	return nil, ErrNotFound
}

func (r *jsonRepo) GetMessages(_ context.Context) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Message(nil), r.data.Messages...), nil
}
