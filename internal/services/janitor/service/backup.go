package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// slot is one retention position. A file older than maxAge has aged out and
// moves down to the next slot, or is deleted from the last one
type slot struct {
	name   string
	maxAge time.Duration
}

// backupSlots is the retention ladder: four hourly files, seven daily,
// four weekly, fifteen files total
func backupSlots() []slot {
	slots := []slot{
		{"backup-1h.db", 2 * time.Hour},
		{"backup-2h.db", 6 * time.Hour},
		{"backup-6h.db", 12 * time.Hour},
		{"backup-12h.db", 24 * time.Hour},
	}
	for i := 1; i <= 7; i++ {
		slots = append(slots, slot{fmt.Sprintf("backup-%dd.db", i), time.Duration(24*(i+1)) * time.Hour})
	}
	for i := 1; i <= 4; i++ {
		slots = append(slots, slot{fmt.Sprintf("backup-%dw.db", i), time.Duration(24*7*(i+1)) * time.Hour})
	}
	return slots
}

// BackupRotate snapshots the live database and rotates the retention
// ladder. Rotation failures are logged and skipped; only a failed snapshot
// aborts, so an odd filesystem state never blocks fresh backups
func (s *Svc) BackupRotate(ctx context.Context) (string, error) {
	dir := s.cfg.BackupDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	fresh := filepath.Join(dir, "backup-new.db")
	if err := s.maint.Backup(ctx, fresh); err != nil {
		return "", err
	}

	slots := backupSlots()

	// bottom up, so a file never moves twice in one pass
	for i := len(slots) - 1; i >= 0; i-- {
		path := filepath.Join(dir, slots[i].name)
		age, ok := s.fileAge(path)
		if !ok || age <= slots[i].maxAge {
			continue
		}
		if i == len(slots)-1 {
			if err := os.Remove(path); err != nil {
				s.log.Warn().Err(err).Str("slot", slots[i].name).Msg("janitor: stale backup delete failed")
			}
			continue
		}
		next := filepath.Join(dir, slots[i+1].name)
		if err := os.Rename(path, next); err != nil {
			s.log.Warn().Err(err).Str("slot", slots[i].name).Msg("janitor: backup rotation failed")
		}
	}

	// the current 1h file either graduates to the 2h slot or goes away
	first := filepath.Join(dir, slots[0].name)
	if age, ok := s.fileAge(first); ok {
		if age >= time.Hour {
			if err := os.Rename(first, filepath.Join(dir, slots[1].name)); err != nil {
				s.log.Warn().Err(err).Msg("janitor: 1h backup rotation failed")
			}
		} else if err := os.Remove(first); err != nil {
			s.log.Warn().Err(err).Msg("janitor: 1h backup replace failed")
		}
	}

	if err := os.Rename(fresh, first); err != nil {
		return "", err
	}
	s.log.Debug().Str("path", first).Msg("janitor: backup created")
	return first, nil
}

func (s *Svc) fileAge(path string) (time.Duration, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return s.now().Sub(info.ModTime()), true
}
