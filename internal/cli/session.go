package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/rowset/pkg/credential"
	"github.com/mesh-intelligence/rowset/pkg/rowset"
	"github.com/mesh-intelligence/rowset/pkg/schema"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

// session is an attached backend with a registry opened over it. The
// caller must defer Close.
type session struct {
	backend types.Backend
	reg     types.Registry
	defs    []*schema.Definition
}

// open loads the schema file, attaches the configured backend, and opens
// the registry.
func (a *app) open() (*session, error) {
	path := a.schemaPath()
	defs, err := schema.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, userError(fmt.Errorf("no schema at %s; run rowset init or set %s", path, cfgKeySchemaFile))
		}
		return nil, userError(err)
	}
	hasher, err := a.hasher()
	if err != nil {
		return nil, userError(err)
	}
	policy := types.CachePolicy(a.cfg.GetString(cfgKeyCachePolicy))

	cfg, err := a.backendConfig()
	if err != nil {
		return nil, classify(err)
	}
	backend, err := rowset.Attach(cfg)
	if err != nil {
		return nil, classify(fmt.Errorf("attach backend: %w", err))
	}
	a.log.Debugw("attached backend", "backend", cfg.Backend, "dataDir", cfg.DataDir)

	reg, err := rowset.Open(backend, defs, rowset.Options{
		Logger:      a.log,
		Hasher:      hasher,
		CachePolicy: policy,
	})
	if err != nil {
		_ = backend.Detach()
		return nil, classify(fmt.Errorf("open registry: %w", err))
	}
	return &session{backend: backend, reg: reg, defs: defs}, nil
}

// Close detaches the backend, flushing any deferred writes.
func (s *session) Close() error {
	return s.backend.Detach()
}

func (s *session) collection(name string) (types.Collection, error) {
	c, err := s.reg.Collection(name)
	if err != nil {
		return nil, userError(err)
	}
	return c, nil
}

// hasher selects the digest for hashed columns from config.
func (a *app) hasher() (credential.Hasher, error) {
	switch name := a.cfg.GetString(cfgKeyHash); name {
	case "", defaultHash:
		return credential.SHA256Hasher{}, nil
	case "argon2":
		salt := a.cfg.GetString(cfgKeyHashSalt)
		if salt == "" {
			return nil, fmt.Errorf("%w: argon2 hashing needs %s", types.ErrInvalidArgument, cfgKeyHashSalt)
		}
		return credential.NewArgon2Hasher([]byte(salt)), nil
	default:
		return nil, fmt.Errorf("%w: unknown hash %q", types.ErrInvalidArgument, name)
	}
}

// withSession opens a session, runs fn, and closes the session. A close
// failure is reported only when fn succeeded.
func (a *app) withSession(fn func(*session) error) (err error) {
	s, err := a.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = sysError(fmt.Errorf("detach backend: %w", cerr))
		}
	}()
	return classify(fn(s))
}

// parseRecord decodes a JSON object argument into a record.
func parseRecord(arg string) (types.Record, error) {
	var rec types.Record
	if err := json.Unmarshal([]byte(arg), &rec); err != nil {
		return nil, userError(fmt.Errorf("record must be a JSON object: %w", err))
	}
	if rec == nil {
		return nil, userError(errors.New("record must be a JSON object"))
	}
	return rec, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
