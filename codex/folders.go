package codex

import (
	"database/sql"

	"github.com/lorekeep/lorekeep/errors"
	"github.com/lorekeep/lorekeep/internal/slug"
)

// Query constants
const (
	folderSelectColumns = `id, name, slug, kind, parent_id, deleted, deleted_at, created_at`

	folderInsertQuery = `
		INSERT INTO folders (name, parent_id, kind, slug)
		VALUES (?, ?, ?, '')`

	folderSubtreeQuery = `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM folders WHERE id = ?
			UNION ALL
			SELECT f.id FROM folders f JOIN subtree s ON f.parent_id = s.id
		)
		SELECT id FROM subtree`
)

// CreateFolder creates a folder under the given parent (nil parent means a
// root folder), assigns its immutable slug, and declares its initial
// attribute templates in the same transaction. Folder and templates become
// visible together, so an entity created right after can never snapshot a
// half-declared set. One invalid template spec fails the whole creation.
func (s *Store) CreateFolder(name string, parentID *int64, kind string, templates []TemplateSpec) (*Folder, error) {
	if name == "" {
		return nil, errors.New("folder name must not be empty")
	}
	for _, spec := range templates {
		if err := validateTemplateSpec(spec); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin create folder")
	}
	defer tx.Rollback()

	if parentID != nil {
		if err := folderVisible(tx, *parentID); err != nil {
			return nil, err
		}
	}

	res, err := tx.Exec(folderInsertQuery, name, parentID, kind)
	if err != nil {
		return nil, errors.Wrap(err, "insert folder")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "folder insert id")
	}

	if err := assignSlug(tx, "folders", id, name); err != nil {
		return nil, err
	}

	for i, spec := range templates {
		if _, err := insertTemplate(tx, id, spec, i); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit create folder")
	}

	if s.logger != nil {
		s.logger.Infow("Folder created", "folder_id", id, "name", name, "templates", len(templates))
	}
	return s.GetFolder(id)
}

// GetFolder returns a visible folder by id.
func (s *Store) GetFolder(id int64) (*Folder, error) {
	row := s.db.QueryRow(
		`SELECT `+folderSelectColumns+` FROM folders WHERE id = ? AND deleted = 0`, id)
	return scanFolder(row, errors.NewNotFoundf(errors.ErrFolderNotFound, "folder %d", id))
}

// GetFolderBySlug returns a visible folder by its stable slug.
func (s *Store) GetFolderBySlug(slugVal string) (*Folder, error) {
	row := s.db.QueryRow(
		`SELECT `+folderSelectColumns+` FROM folders WHERE slug = ? AND deleted = 0`, slugVal)
	return scanFolder(row, errors.NewNotFoundf(errors.ErrFolderNotFound, "folder %q", slugVal))
}

// ListFolders lists visible folders under the given parent; nil lists roots.
func (s *Store) ListFolders(parentID *int64) ([]Folder, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		rows, err = s.db.Query(
			`SELECT ` + folderSelectColumns + ` FROM folders WHERE parent_id IS NULL AND deleted = 0 ORDER BY name`)
	} else {
		rows, err = s.db.Query(
			`SELECT `+folderSelectColumns+` FROM folders WHERE parent_id = ? AND deleted = 0 ORDER BY name`, *parentID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "list folders")
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		f, err := scanFolderRow(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, *f)
	}
	return folders, rows.Err()
}

// RenameFolder changes a folder's display name. The slug never changes; it is
// the stable external identifier.
func (s *Store) RenameFolder(id int64, newName string) error {
	if newName == "" {
		return errors.New("folder name must not be empty")
	}

	res, err := s.db.Exec(
		`UPDATE folders SET name = ? WHERE id = ? AND deleted = 0`, newName, id)
	if err != nil {
		return errors.Wrap(err, "rename folder")
	}
	return requireAffected(res, errors.NewNotFoundf(errors.ErrFolderNotFound, "folder %d", id))
}

// DeleteFolder soft-deletes a folder and, in the same transaction, its entire
// subtree: descendant folders, every template bound in the subtree, and every
// entity owned in the subtree. An invisible folder never leaves visible
// children. Deleting an already-deleted folder is a no-op.
func (s *Store) DeleteFolder(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin delete folder")
	}
	defer tx.Rollback()

	var deleted bool
	err = tx.QueryRow(`SELECT deleted FROM folders WHERE id = ?`, id).Scan(&deleted)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundf(errors.ErrFolderNotFound, "folder %d", id)
	}
	if err != nil {
		return errors.Wrap(err, "load folder")
	}
	if deleted {
		return nil
	}

	ids, err := subtreeIDs(tx, id)
	if err != nil {
		return err
	}

	ts := now()
	in := placeholders(len(ids))
	args := idArgs(ids)

	if _, err := tx.Exec(
		`UPDATE folders SET deleted = 1, deleted_at = ? WHERE id IN `+in+` AND deleted = 0`,
		append([]interface{}{ts}, args...)...); err != nil {
		return errors.Wrap(err, "soft-delete folder subtree")
	}
	if _, err := tx.Exec(
		`UPDATE attribute_templates SET deleted = 1, deleted_at = ? WHERE folder_id IN `+in+` AND deleted = 0`,
		append([]interface{}{ts}, args...)...); err != nil {
		return errors.Wrap(err, "soft-delete subtree templates")
	}
	if _, err := tx.Exec(
		`UPDATE entities SET deleted = 1, deleted_at = ? WHERE folder_id IN `+in+` AND deleted = 0`,
		append([]interface{}{ts}, args...)...); err != nil {
		return errors.Wrap(err, "soft-delete subtree entities")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit delete folder")
	}

	if s.logger != nil {
		s.logger.Infow("Folder soft-deleted", "folder_id", id, "subtree_size", len(ids))
	}
	return nil
}

// RestoreFolder clears the soft-delete flag on the folder itself, exactly
// reversing DeleteFolder for that one object. Descendants stay deleted and
// need explicit per-object restore; an accidental delete of a large subtree
// should not silently mass-undelete on restore.
func (s *Store) RestoreFolder(id int64) error {
	res, err := s.db.Exec(
		`UPDATE folders SET deleted = 0, deleted_at = NULL WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "restore folder")
	}
	return requireAffected(res, errors.NewNotFoundf(errors.ErrFolderNotFound, "folder %d", id))
}

// PurgeFolder irreversibly removes a folder subtree: every owned entity with
// its values, every template, every descendant folder, then the folder itself.
func (s *Store) PurgeFolder(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin purge folder")
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM folders WHERE id = ?)`, id).Scan(&exists); err != nil {
		return errors.Wrap(err, "check folder")
	}
	if !exists {
		return errors.NewNotFoundf(errors.ErrFolderNotFound, "folder %d", id)
	}

	ids, err := subtreeIDs(tx, id)
	if err != nil {
		return err
	}

	in := placeholders(len(ids))
	args := idArgs(ids)

	if _, err := tx.Exec(
		`DELETE FROM attribute_values WHERE entity_id IN (SELECT id FROM entities WHERE folder_id IN `+in+`)`,
		args...); err != nil {
		return errors.Wrap(err, "purge subtree values")
	}
	if _, err := tx.Exec(`DELETE FROM entities WHERE folder_id IN `+in, args...); err != nil {
		return errors.Wrap(err, "purge subtree entities")
	}
	if _, err := tx.Exec(`DELETE FROM attribute_values WHERE template_id IN (SELECT id FROM attribute_templates WHERE folder_id IN `+in+`)`, args...); err != nil {
		return errors.Wrap(err, "purge values of subtree templates")
	}
	if _, err := tx.Exec(`DELETE FROM attribute_templates WHERE folder_id IN `+in, args...); err != nil {
		return errors.Wrap(err, "purge subtree templates")
	}

	// Children before parents to satisfy the self-referencing foreign key
	for i := len(ids) - 1; i >= 0; i-- {
		if _, err := tx.Exec(`DELETE FROM folders WHERE id = ?`, ids[i]); err != nil {
			return errors.Wrap(err, "purge folder row")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit purge folder")
	}

	if s.logger != nil {
		s.logger.Infow("Folder purged", "folder_id", id, "subtree_size", len(ids))
	}
	return nil
}

// subtreeIDs returns the folder id plus all descendant ids, parents before
// children. The parent chain is acyclic so the recursion is finite.
func subtreeIDs(tx *sql.Tx, id int64) ([]int64, error) {
	rows, err := tx.Query(folderSubtreeQuery, id)
	if err != nil {
		return nil, errors.Wrap(err, "query folder subtree")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var fid int64
		if err := rows.Scan(&fid); err != nil {
			return nil, errors.Wrap(err, "scan subtree id")
		}
		ids = append(ids, fid)
	}
	return ids, rows.Err()
}

// assignSlug computes and writes the row's immutable slug inside the creating
// transaction. A collision means the deterministic scheme broke down, which
// is an internal-invariant violation.
func assignSlug(tx *sql.Tx, table string, id int64, name string) error {
	slugVal := slug.Make(name, id)

	var taken bool
	if err := tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE slug = ? AND id != ?)`, slugVal, id,
	).Scan(&taken); err != nil {
		return errors.Wrap(err, "check slug uniqueness")
	}
	if taken {
		return errors.Wrapf(errors.ErrSlugCollision, "%s slug %q", table, slugVal)
	}

	if _, err := tx.Exec(`UPDATE `+table+` SET slug = ? WHERE id = ?`, slugVal, id); err != nil {
		return errors.Wrap(err, "write slug")
	}
	return nil
}

// folderVisible fails with ErrFolderNotFound unless the folder exists and is
// not soft-deleted.
func folderVisible(q queryRower, id int64) error {
	var exists bool
	if err := q.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM folders WHERE id = ? AND deleted = 0)`, id,
	).Scan(&exists); err != nil {
		return errors.Wrap(err, "check folder")
	}
	if !exists {
		return errors.NewNotFoundf(errors.ErrFolderNotFound, "folder %d", id)
	}
	return nil
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFolder(row *sql.Row, notFound error) (*Folder, error) {
	f, err := scanFolderRow(row)
	if err == sql.ErrNoRows {
		return nil, notFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan folder")
	}
	return f, nil
}

func scanFolderRow(row rowScanner) (*Folder, error) {
	var (
		f         Folder
		parentID  sql.NullInt64
		deletedAt sql.NullTime
		deleted   int
	)
	err := row.Scan(&f.ID, &f.Name, &f.Slug, &f.Kind, &parentID, &deleted, &deletedAt, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.ParentID = nullableID(parentID)
	f.Deleted = deleted == 1
	f.DeletedAt = nullableTime(deletedAt)
	return &f, nil
}

// requireAffected converts a zero-row UPDATE into the caller's not-found error.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// placeholders renders "(?, ?, ?)" for n parameters.
func placeholders(n int) string {
	if n == 0 {
		return "(NULL)"
	}
	out := make([]byte, 0, 2*n+1)
	out = append(out, '(')
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(append(out, ')'))
}

func idArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
