package nsfw

import (
	"context"

	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/settings"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db       *bun.DB
	settings *settings.Service
}

func NewService(db *bun.DB, settingsService *settings.Service) *Service {
	return &Service{db: db, settings: settingsService}
}

// RecomputeAll reclassifies every series against the current rules and
// persists the rows whose flag changed. It returns the number of series now
// flagged and the number of rows updated.
func (svc *Service) RecomputeAll(ctx context.Context) (flagged, updated int, err error) {
	rules, err := svc.settings.NSFWRules(ctx)
	if err != nil {
		return 0, 0, errors.WithStack(err)
	}

	series := []*models.Series{}
	err = svc.db.NewSelect().Model(&series).Scan(ctx)
	if err != nil {
		return 0, 0, errors.WithStack(err)
	}

	var flagIDs, unflagIDs []int
	for _, s := range series {
		if err := s.UnmarshalLists(); err != nil {
			return 0, 0, errors.WithStack(err)
		}
		isNSFW := Classify(s, rules)
		if isNSFW {
			flagged++
		}
		if isNSFW == s.IsNSFW {
			continue
		}
		if isNSFW {
			flagIDs = append(flagIDs, s.ID)
		} else {
			unflagIDs = append(unflagIDs, s.ID)
		}
	}

	err = svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, batch := range []struct {
			ids  []int
			flag bool
		}{
			{flagIDs, true},
			{unflagIDs, false},
		} {
			if len(batch.ids) == 0 {
				continue
			}
			_, err := tx.NewUpdate().
				Model((*models.Series)(nil)).
				Set("is_nsfw = ?", batch.flag).
				Where("id IN (?)", bun.In(batch.ids)).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, errors.WithStack(err)
	}

	return flagged, len(flagIDs) + len(unflagIDs), nil
}

// SetOverride pins or clears the manual flag for one series and immediately
// reapplies classification to it.
func (svc *Service) SetOverride(ctx context.Context, seriesID int, override *bool) (*models.Series, error) {
	s := &models.Series{}
	err := svc.db.NewSelect().Model(s).Where("s.id = ?", seriesID).Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := s.UnmarshalLists(); err != nil {
		return nil, errors.WithStack(err)
	}

	rules, err := svc.settings.NSFWRules(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	s.NSFWOverride = override
	s.IsNSFW = Classify(s, rules)

	_, err = svc.db.NewUpdate().
		Model(s).
		Column("nsfw_override", "is_nsfw").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return s, nil
}
