package project

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"

	qserrors "github.com/conneroisu/quicksite/internal/errors"
	"github.com/conneroisu/quicksite/internal/structure"
)

const snapshotExt = ".msgpack"

// Snapshot is one overwritten version of a structure.
type Snapshot struct {
	ID     string    `msgpack:"id" json:"id" yaml:"id"`
	Ref    string    `msgpack:"ref" json:"ref" yaml:"ref"`
	Action string    `msgpack:"action" json:"action" yaml:"action"`
	Time   time.Time `msgpack:"time" json:"time" yaml:"time"`
	Data   []byte    `msgpack:"data" json:"-" yaml:"-"`
}

func (p *Project) historyDir(ref Ref) string {
	return filepath.Join(p.root, HistoryDir, ref.slug())
}

func (p *Project) snapshot(ref Ref, prev []byte, action string) error {
	if p.historyLimit < 0 {
		return nil
	}
	id := ulid.Make()
	snap := Snapshot{
		ID:     id.String(),
		Ref:    ref.String(),
		Action: action,
		Time:   ulid.Time(id.Time()).UTC(),
		Data:   prev,
	}
	packed, err := msgpack.Marshal(&snap)
	if err != nil {
		return qserrors.NewInternalError(qserrors.ErrCodeInternalError, "encode snapshot", err)
	}
	dir := p.historyDir(ref)
	if err := writeFileAtomic(filepath.Join(dir, snap.ID+snapshotExt), packed); err != nil {
		return err
	}
	return p.prune(ref)
}

// History lists the snapshots of ref, oldest first. Data is not loaded.
func (p *Project) History(ref Ref) ([]Snapshot, error) {
	ids, err := p.snapshotIDs(ref)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := p.readSnapshot(ref, id)
		if err != nil {
			return nil, err
		}
		snap.Data = nil
		out = append(out, *snap)
	}
	return out, nil
}

// Undo restores the newest snapshot of ref and removes it from history. The
// restore itself is not recorded.
func (p *Project) Undo(ctx context.Context, ref Ref) (any, error) {
	ids, err := p.snapshotIDs(ref)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, qserrors.NewNotFoundError(qserrors.ErrCodeNoHistory, "nothing to undo").
			WithStructure(ref.String())
	}

	id := ids[len(ids)-1]
	snap, err := p.readSnapshot(ref, id)
	if err != nil {
		return nil, err
	}
	s, err := structure.Decode(snap.Data)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(p.Path(ref), snap.Data); err != nil {
		return nil, err
	}
	if err := os.Remove(filepath.Join(p.historyDir(ref), id+snapshotExt)); err != nil {
		return nil, qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "remove snapshot", err)
	}

	p.logger.Info(ctx, "Structure restored", "structure", ref.String(), "snapshot", id, "undone", snap.Action)
	return s, nil
}

func (p *Project) snapshotIDs(ref Ref) ([]string, error) {
	entries, err := os.ReadDir(p.historyDir(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "list history", err)
	}
	var ids []string
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), snapshotExt)
		if !ok || e.IsDir() {
			continue
		}
		if _, err := ulid.ParseStrict(id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (p *Project) readSnapshot(ref Ref, id string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(p.historyDir(ref), id+snapshotExt))
	if err != nil {
		return nil, qserrors.NewIOError(qserrors.ErrCodeFileNotFound, "read snapshot "+id, err)
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, qserrors.NewInternalError(qserrors.ErrCodeInternalError, "decode snapshot "+id, err)
	}
	return &snap, nil
}

func (p *Project) prune(ref Ref) error {
	ids, err := p.snapshotIDs(ref)
	if err != nil {
		return err
	}
	for len(ids) > p.historyLimit {
		if err := os.Remove(filepath.Join(p.historyDir(ref), ids[0]+snapshotExt)); err != nil {
			return qserrors.NewIOError(qserrors.ErrCodeWriteFailed, "prune history", err)
		}
		ids = ids[1:]
	}
	return nil
}
