package libraries

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/comicden/comicden/pkg/errcodes"
	"github.com/comicden/comicden/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveLibraryOptions struct {
	ID      *int
	Default bool
}

type UpdateLibraryOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateLibrary(ctx context.Context, library *models.Library) error {
	path, err := validateRoot(library.Path)
	if err != nil {
		return errors.WithStack(err)
	}
	library.Path = path

	now := time.Now()
	if library.CreatedAt.IsZero() {
		library.CreatedAt = now
	}
	library.UpdatedAt = library.CreatedAt

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// The first library becomes the default automatically.
		count, err := tx.NewSelect().Model((*models.Library)(nil)).Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if count == 0 {
			library.IsDefault = true
		} else if library.IsDefault {
			_, err = tx.NewUpdate().
				Model((*models.Library)(nil)).
				Set("is_default = ?", false).
				Where("is_default = ?", true).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		_, err = tx.NewInsert().
			Model(library).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	return errors.WithStack(err)
}

func (svc *Service) RetrieveLibrary(ctx context.Context, opts RetrieveLibraryOptions) (*models.Library, error) {
	library := &models.Library{}

	q := svc.db.
		NewSelect().
		Model(library)

	if opts.ID != nil {
		q = q.Where("l.id = ?", *opts.ID)
	}
	if opts.Default {
		q = q.Where("l.is_default = ?", true)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Library")
		}
		return nil, errors.WithStack(err)
	}

	return library, nil
}

func (svc *Service) ListLibraries(ctx context.Context) ([]*models.Library, error) {
	libraries := []*models.Library{}
	err := svc.db.
		NewSelect().
		Model(&libraries).
		Order("l.name ASC").
		Scan(ctx)
	return libraries, errors.WithStack(err)
}

func (svc *Service) UpdateLibrary(ctx context.Context, library *models.Library, opts UpdateLibraryOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	for _, col := range opts.Columns {
		if col == "path" {
			path, err := validateRoot(library.Path)
			if err != nil {
				return errors.WithStack(err)
			}
			library.Path = path
		}
	}

	library.UpdatedAt = time.Now()
	columns := append([]string{"updated_at"}, opts.Columns...)

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, col := range opts.Columns {
			if col == "is_default" && library.IsDefault {
				_, err := tx.NewUpdate().
					Model((*models.Library)(nil)).
					Set("is_default = ?", false).
					Where("is_default = ?", true).
					Where("id != ?", library.ID).
					Exec(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
			}
		}

		_, err := tx.NewUpdate().
			Model(library).
			Column(columns...).
			WherePK().
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	return errors.WithStack(err)
}

func (svc *Service) DeleteLibrary(ctx context.Context, id int) error {
	res, err := svc.db.NewDelete().
		Model((*models.Library)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Library")
	}
	return nil
}

// validateRoot resolves a library root to an absolute path and requires it
// to be an existing directory.
func validateRoot(path string) (string, error) {
	if path == "" {
		return "", errcodes.ValidationError("Library path can't be empty.")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errcodes.ValidationError("Library path doesn't exist.")
		}
		return "", errors.WithStack(err)
	}
	if !info.IsDir() {
		return "", errcodes.ValidationError("Library path isn't a directory.")
	}
	return abs, nil
}
