package codex

import (
	"database/sql"

	"github.com/lorekeep/lorekeep/errors"
)

const (
	templateSelectColumns = `id, folder_id, name, value_type, default_value, options, required, display_order, is_global, created_at`

	templateInsertQuery = `
		INSERT INTO attribute_templates (folder_id, name, value_type, default_value, options, required, display_order, is_global)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	// Ancestors of a folder, nearest first. depth 0 is the folder itself and
	// is excluded from the result.
	folderAncestorsQuery = `
		WITH RECURSIVE chain(id, parent_id, depth) AS (
			SELECT id, parent_id, 0 FROM folders WHERE id = ?
			UNION ALL
			SELECT f.id, f.parent_id, c.depth + 1
			FROM folders f JOIN chain c ON f.id = c.parent_id
		)
		SELECT id FROM chain WHERE depth > 0 ORDER BY depth`
)

// CreateTemplate declares a typed custom field on a folder. Global templates
// additionally apply to every entity in the world. The default value must
// already satisfy the declared type, and single-select templates need at
// least one option.
func (s *Store) CreateTemplate(folderID int64, name string, valueType ValueType, defaultValue string, options []string, required, global bool) (*AttributeTemplate, error) {
	spec := TemplateSpec{
		Name:         name,
		Type:         valueType,
		DefaultValue: defaultValue,
		Options:      options,
		Required:     required,
		Global:       global,
	}
	if err := validateTemplateSpec(spec); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin create template")
	}
	defer tx.Rollback()

	if err := folderVisible(tx, folderID); err != nil {
		return nil, err
	}

	// New templates go to the end of the folder's display order.
	next, err := nextDisplayOrder(tx, folderID)
	if err != nil {
		return nil, err
	}

	id, err := insertTemplate(tx, folderID, spec, next)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit create template")
	}

	if s.logger != nil {
		s.logger.Infow("Template created",
			"template_id", id, "folder_id", folderID, "name", name, "type", valueType, "global", global)
	}
	return s.GetTemplate(id)
}

// validateTemplateSpec checks a requested template declaration before it is
// written anywhere.
func validateTemplateSpec(spec TemplateSpec) error {
	if spec.Name == "" {
		return errors.New("template name must not be empty")
	}
	if !spec.Type.Valid() {
		return errors.NewInvalidValuef("unknown value type %q", spec.Type)
	}
	if spec.Type == TypeSingleSelect && len(spec.Options) == 0 {
		return errors.NewInvalidValuef("single-select template %q needs at least one option", spec.Name)
	}
	if err := validateValue(spec.Type, spec.Options, spec.DefaultValue); err != nil {
		return errors.WithMessagef(err, "default value for template %q", spec.Name)
	}
	return nil
}

// nextDisplayOrder returns the display order after the folder's current last
// visible template.
func nextDisplayOrder(tx *sql.Tx, folderID int64) (int, error) {
	var next int
	err := tx.QueryRow(
		`SELECT COALESCE(MAX(display_order), -1) + 1 FROM attribute_templates WHERE folder_id = ? AND deleted = 0`,
		folderID,
	).Scan(&next)
	if err != nil {
		return 0, errors.Wrap(err, "next display order")
	}
	return next, nil
}

// insertTemplate writes one validated template declaration inside the
// caller's transaction.
func insertTemplate(tx *sql.Tx, folderID int64, spec TemplateSpec, displayOrder int) (int64, error) {
	opts, err := marshalOptions(spec.Options)
	if err != nil {
		return 0, err
	}

	res, err := tx.Exec(templateInsertQuery,
		folderID, spec.Name, string(spec.Type), spec.DefaultValue, opts,
		boolInt(spec.Required), displayOrder, boolInt(spec.Global))
	if err != nil {
		return 0, errors.Wrapf(err, "insert template %q", spec.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "template insert id")
	}
	return id, nil
}

// GetTemplate returns a visible template by id.
func (s *Store) GetTemplate(id int64) (*AttributeTemplate, error) {
	row := s.db.QueryRow(
		`SELECT `+templateSelectColumns+` FROM attribute_templates WHERE id = ? AND deleted = 0`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundf(errors.ErrTemplateNotFound, "template %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan template")
	}
	return t, nil
}

// ListTemplates returns the templates bound directly to one folder, in
// display order. Inherited and global templates are not included; use
// EffectiveTemplates for the full set an entity in the folder would carry.
func (s *Store) ListTemplates(folderID int64) ([]AttributeTemplate, error) {
	return s.queryTemplates(
		`SELECT `+templateSelectColumns+` FROM attribute_templates
		 WHERE folder_id = ? AND deleted = 0 ORDER BY display_order, id`, folderID)
}

// EffectiveTemplates resolves the full ordered template set for entities in
// a folder: the folder's own templates first, then each ancestor's going
// nearest-first up the chain, then global templates not already included.
// Same-named templates from different folders are distinct fields and all
// appear.
func (s *Store) EffectiveTemplates(folderID int64) ([]AttributeTemplate, error) {
	if err := folderVisible(s.db, folderID); err != nil {
		return nil, err
	}

	chain := []int64{folderID}
	rows, err := s.db.Query(folderAncestorsQuery, folderID)
	if err != nil {
		return nil, errors.Wrap(err, "query ancestors")
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan ancestor")
		}
		chain = append(chain, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read ancestors")
	}

	var (
		effective []AttributeTemplate
		seen      = map[int64]bool{}
	)
	for _, fid := range chain {
		batch, err := s.ListTemplates(fid)
		if err != nil {
			return nil, err
		}
		for _, t := range batch {
			seen[t.ID] = true
			effective = append(effective, t)
		}
	}

	globals, err := s.queryTemplates(
		`SELECT ` + templateSelectColumns + ` FROM attribute_templates
		 WHERE is_global = 1 AND deleted = 0 ORDER BY display_order, id`)
	if err != nil {
		return nil, err
	}
	for _, t := range globals {
		if !seen[t.ID] {
			effective = append(effective, t)
		}
	}
	return effective, nil
}

// DeleteTemplate soft-deletes a template declaration. Values already
// instantiated on entities survive unless the caller asks for the cascade;
// removing a field definition must not quietly destroy entered content.
func (s *Store) DeleteTemplate(id int64, cascadeValues bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin delete template")
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE attribute_templates SET deleted = 1, deleted_at = ? WHERE id = ? AND deleted = 0`,
		now(), id)
	if err != nil {
		return errors.Wrap(err, "soft-delete template")
	}
	if err := requireAffected(res, errors.NewNotFoundf(errors.ErrTemplateNotFound, "template %d", id)); err != nil {
		return err
	}

	var removed int64
	if cascadeValues {
		res, err := tx.Exec(`DELETE FROM attribute_values WHERE template_id = ?`, id)
		if err != nil {
			return errors.Wrap(err, "cascade template values")
		}
		removed, _ = res.RowsAffected()
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit delete template")
	}

	if s.logger != nil {
		s.logger.Infow("Template deleted", "template_id", id, "values_removed", removed)
	}
	return nil
}

func (s *Store) queryTemplates(query string, args ...interface{}) ([]AttributeTemplate, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query templates")
	}
	defer rows.Close()

	var templates []AttributeTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan template")
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func scanTemplate(row rowScanner) (*AttributeTemplate, error) {
	var (
		t        AttributeTemplate
		vt       string
		opts     string
		required int
		global   int
	)
	err := row.Scan(&t.ID, &t.FolderID, &t.Name, &vt, &t.DefaultValue, &opts, &required, &t.DisplayOrder, &global, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = ValueType(vt)
	t.Required = required == 1
	t.Global = global == 1
	t.Options, err = unmarshalOptions(opts)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
