package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cardvault/internal/fileutil"
	"cardvault/internal/logging"
	"cardvault/internal/sets"
	"cardvault/internal/vaulterr"
)

// Action is a merge conflict resolution choice.
type Action int

const (
	// ActionImportAs imports the conflicting set under Decision.Name.
	ActionImportAs Action = iota
	// ActionIgnore skips the conflicting set.
	ActionIgnore
	// ActionIgnoreAll skips this and every later conflict.
	ActionIgnoreAll
)

// Decision resolves one set-name conflict during a vault merge.
type Decision struct {
	Action Action
	Name   string
}

// ImportAs builds a decision to import under the given name.
func ImportAs(name string) Decision {
	return Decision{Action: ActionImportAs, Name: name}
}

// Ignore skips the conflicting set.
func Ignore() Decision {
	return Decision{Action: ActionIgnore}
}

// IgnoreAll skips every remaining conflict.
func IgnoreAll() Decision {
	return Decision{Action: ActionIgnoreAll}
}

// DecisionProvider is consulted once per conflicting set name during a
// merge, receiving the conflicting name and a free suggested rename.
type DecisionProvider func(conflictName, suggestedName string) Decision

// AutoRename resolves every conflict by accepting the suggested name.
func AutoRename(conflictName, suggestedName string) Decision {
	return ImportAs(suggestedName)
}

// MergeResult reports the outcome of a vault merge per set.
type MergeResult struct {
	Imported []string
	Ignored  []string
	Renamed  [][2]string
}

// MergeVault merges a staged vault into the repository. Icon sets are
// merged first: a bundled set replaces an existing one only when the
// existing one is invalid. Non-colliding sets import unconditionally;
// collisions go to the decision provider. An invalid import-as name demotes
// the set to ignored, as does a copy failure, and the merge continues.
func (p *Packager) MergeVault(staged *StagedVault, decide DecisionProvider) (MergeResult, error) {
	if decide == nil {
		decide = AutoRename
	}
	result := MergeResult{}

	if staged.IconsDir != "" {
		p.mergeIcons(staged.IconsDir)
	}
	if staged.SetsDir == "" {
		return result, nil
	}

	entries, err := os.ReadDir(staged.SetsDir)
	if err != nil {
		return result, vaulterr.Wrap(vaulterr.ErrIO, "archive", "merge", "read staged sets", err)
	}

	existing := map[string]bool{}
	names, err := p.store.List()
	if err != nil {
		return result, err
	}
	for _, name := range names {
		existing[name] = true
	}

	ignoreAll := false
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "icons" {
			continue
		}
		if _, err := os.Stat(filepath.Join(staged.SetsDir, entry.Name(), sets.MetadataFile)); err != nil {
			continue
		}

		originalName := entry.Name()
		importName := originalName
		renamed := false

		if existing[originalName] {
			if ignoreAll {
				result.Ignored = append(result.Ignored, originalName)
				continue
			}
			suggested := suggestName(originalName, func(name string) bool { return existing[name] })
			decision := decide(originalName, suggested)
			switch decision.Action {
			case ActionIgnore:
				result.Ignored = append(result.Ignored, originalName)
				continue
			case ActionIgnoreAll:
				ignoreAll = true
				result.Ignored = append(result.Ignored, originalName)
				continue
			case ActionImportAs:
				if err := p.validateMergeName(decision.Name, existing); err != nil {
					p.logger.Warn("conflict resolution name rejected",
						logging.String("set", originalName),
						logging.String("name", decision.Name),
						logging.Error(err))
					result.Ignored = append(result.Ignored, originalName)
					continue
				}
				importName = decision.Name
				renamed = importName != originalName
			}
		}

		if err := p.importStagedSet(filepath.Join(staged.SetsDir, originalName), importName, renamed); err != nil {
			p.logger.Warn("set import failed during merge",
				logging.String("set", originalName), logging.Error(err))
			result.Ignored = append(result.Ignored, originalName)
			continue
		}
		existing[importName] = true
		result.Imported = append(result.Imported, importName)
		if renamed {
			result.Renamed = append(result.Renamed, [2]string{originalName, importName})
		}
	}
	p.store.ResetCache()
	p.logger.Info("vault merged",
		logging.Int("imported", len(result.Imported)),
		logging.Int("ignored", len(result.Ignored)),
		logging.Int("renamed", len(result.Renamed)))
	return result, nil
}

// validateMergeName applies the naming rules against the in-progress view
// of existing sets rather than only the on-disk one.
func (p *Packager) validateMergeName(name string, existing map[string]bool) error {
	if existing[name] {
		return vaulterr.Invalidf("set %q already exists", name)
	}
	return p.store.ValidateName(name)
}

func (p *Packager) importStagedSet(sourceDir, name string, renamed bool) error {
	destDir := p.store.SetPath(name)
	if err := os.RemoveAll(destDir); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "merge", "clear destination", err)
	}
	if err := fileutil.CopyTree(sourceDir, destDir); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "merge", "copy staged set", err)
	}
	if renamed {
		if err := rewriteSetName(destDir, name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packager) mergeIcons(iconsDir string) {
	entries, err := os.ReadDir(iconsDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := p.icons.ImportDir(filepath.Join(iconsDir, entry.Name()), entry.Name()); err != nil {
			p.logger.Warn("bundled icon set skipped",
				logging.String("name", entry.Name()), logging.Error(err))
		}
	}
}

// ReplaceVault substitutes the repository's contents with a staged vault.
// The current sets directory is preserved as a timestamped sibling backup
// before the new sets are copied in.
func (p *Packager) ReplaceVault(staged *StagedVault) error {
	setsDir := p.store.Dir()
	backup := filepath.Join(filepath.Dir(setsDir),
		fmt.Sprintf("sets_backup_%s", time.Now().Format("20060102_150405")))
	if _, err := os.Stat(setsDir); err == nil {
		if err := fileutil.MoveDir(setsDir, backup); err != nil {
			return vaulterr.Wrap(vaulterr.ErrIO, "archive", "replace", "back up sets directory", err)
		}
	}
	if err := os.MkdirAll(setsDir, 0o755); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "archive", "replace", "recreate sets directory", err)
	}

	if staged.SetsDir != "" {
		entries, err := os.ReadDir(staged.SetsDir)
		if err != nil {
			return vaulterr.Wrap(vaulterr.ErrIO, "archive", "replace", "read staged sets", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() || entry.Name() == "icons" {
				continue
			}
			src := filepath.Join(staged.SetsDir, entry.Name())
			if err := fileutil.CopyTree(src, filepath.Join(setsDir, entry.Name())); err != nil {
				return vaulterr.Wrap(vaulterr.ErrIO, "archive", "replace", "copy staged set", err)
			}
		}
	}
	if staged.IconsDir != "" {
		p.mergeIcons(staged.IconsDir)
	}

	p.store.ResetCache()
	p.logger.Info("vault replaced", logging.String("backup", backup))
	return nil
}
