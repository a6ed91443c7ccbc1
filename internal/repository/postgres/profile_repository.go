package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const profileColumns = `
	address, display_name, username, profile_picture, description,
	location, nationality, continent, interests, looking_for,
	gender_preference, min_visible_to_ethos_score,
	ethos_score, trust_level, trust_level_color,
	reviews_received, reviews_given, vouches_received, vouches_given, xp_total,
	created_at, updated_at`

// profileRow is the persisted shape of a profile. It is the only place the
// snake_case column names meet the domain type.
type profileRow struct {
	Address          string         `db:"address"`
	DisplayName      string         `db:"display_name"`
	Username         string         `db:"username"`
	ProfilePicture   string         `db:"profile_picture"`
	Description      string         `db:"description"`
	Location         string         `db:"location"`
	Nationality      string         `db:"nationality"`
	Continent        string         `db:"continent"`
	Interests        pq.StringArray `db:"interests"`
	LookingFor       pq.StringArray `db:"looking_for"`
	GenderPreference string         `db:"gender_preference"`
	MinVisibleScore  int            `db:"min_visible_to_ethos_score"`
	EthosScore       int            `db:"ethos_score"`
	TrustLevel       string         `db:"trust_level"`
	TrustLevelColor  sql.NullString `db:"trust_level_color"`
	ReviewsReceived  int            `db:"reviews_received"`
	ReviewsGiven     int            `db:"reviews_given"`
	VouchesReceived  int            `db:"vouches_received"`
	VouchesGiven     int            `db:"vouches_given"`
	XPTotal          int            `db:"xp_total"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *profileRow) toDomain() *domain.Profile {
	p := &domain.Profile{
		Address:          r.Address,
		DisplayName:      r.DisplayName,
		Username:         r.Username,
		AvatarURL:        r.ProfilePicture,
		Description:      r.Description,
		Location:         r.Location,
		Nationality:      r.Nationality,
		Continent:        r.Continent,
		Interests:        []string(r.Interests),
		LookingFor:       []string(r.LookingFor),
		GenderPreference: r.GenderPreference,
		MinVisibleScore:  r.MinVisibleScore,
		Reputation: domain.Reputation{
			Score:      r.EthosScore,
			TrustLevel: r.TrustLevel,
			Stats: domain.Stats{
				ReviewsReceived: r.ReviewsReceived,
				ReviewsGiven:    r.ReviewsGiven,
				VouchesReceived: r.VouchesReceived,
				VouchesGiven:    r.VouchesGiven,
			},
			XPTotal: r.XPTotal,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.TrustLevelColor.Valid {
		color := r.TrustLevelColor.String
		p.TrustLevelColor = &color
	}
	return p
}

type profileRepository struct {
	db sqlx.ExtContext
}

func NewProfileRepository(db sqlx.ExtContext) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByAddress(ctx context.Context, address string) (*domain.Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE address = $1`
	err := sqlx.GetContext(ctx, r.db, &row, query, domain.NormalizeAddress(address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *profileRepository) ListExcept(ctx context.Context, address string) ([]*domain.Profile, error) {
	var rows []profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE address <> $1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, domain.NormalizeAddress(address)); err != nil {
		return nil, err
	}

	profiles := make([]*domain.Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].toDomain())
	}
	return profiles, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	profile.Address = domain.NormalizeAddress(profile.Address)

	var color sql.NullString
	if profile.TrustLevelColor != nil {
		color = sql.NullString{String: *profile.TrustLevelColor, Valid: true}
	}

	query := `
		INSERT INTO profiles (
			address, display_name, username, profile_picture, description,
			location, nationality, continent, interests, looking_for,
			gender_preference, min_visible_to_ethos_score,
			ethos_score, trust_level, trust_level_color,
			reviews_received, reviews_given, vouches_received, vouches_given, xp_total
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (address) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			username = EXCLUDED.username,
			profile_picture = EXCLUDED.profile_picture,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			nationality = EXCLUDED.nationality,
			continent = EXCLUDED.continent,
			interests = EXCLUDED.interests,
			looking_for = EXCLUDED.looking_for,
			gender_preference = EXCLUDED.gender_preference,
			min_visible_to_ethos_score = EXCLUDED.min_visible_to_ethos_score,
			ethos_score = EXCLUDED.ethos_score,
			trust_level = EXCLUDED.trust_level,
			trust_level_color = EXCLUDED.trust_level_color,
			reviews_received = EXCLUDED.reviews_received,
			reviews_given = EXCLUDED.reviews_given,
			vouches_received = EXCLUDED.vouches_received,
			vouches_given = EXCLUDED.vouches_given,
			xp_total = EXCLUDED.xp_total,
			updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowxContext(
		ctx, query,
		profile.Address, profile.DisplayName, profile.Username, profile.AvatarURL, profile.Description,
		profile.Location, profile.Nationality, profile.Continent,
		pq.Array(profile.Interests), pq.Array(profile.LookingFor),
		profile.GenderPreference, profile.MinVisibleScore,
		profile.Score, profile.TrustLevel, color,
		profile.Stats.ReviewsReceived, profile.Stats.ReviewsGiven,
		profile.Stats.VouchesReceived, profile.Stats.VouchesGiven, profile.XPTotal,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) Delete(ctx context.Context, address string) error {
	query := `DELETE FROM profiles WHERE address = $1`
	result, err := r.db.ExecContext(ctx, query, domain.NormalizeAddress(address))
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
