package core

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

type (
	Company struct {
		ID                   string    `db:"id" json:"id"`
		Name                 string    `db:"nome" json:"nome"`
		Ticker               string    `db:"ticker" json:"ticker"`
		InvestorRelationsURL string    `db:"link_ri" json:"link_ri"`
		CreatedAt            time.Time `db:"created_at" json:"created_at"`
		UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
	}

	// QuarterlyRecord holds one company's indicators for one fiscal quarter.
	// Quarter is stored redundantly and must always equal QuarterKey(Year, QuarterNumber).
	QuarterlyRecord struct {
		ID            string    `db:"id" json:"id"`
		CompanyID     string    `db:"company_id" json:"company_id"`
		Year          int       `db:"year" json:"year"`
		QuarterNumber int       `db:"quarter_number" json:"quarter_number"`
		Quarter       string    `db:"quarter" json:"quarter"`
		CreatedAt     time.Time `db:"created_at" json:"created_at"`
		UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
		Indicators
	}
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateQuarter  = errors.New("quarter already registered for company")
	ErrEmptyName         = fmt.Errorf("%w: empty company name", ErrValidation)
	ErrEmptyTicker       = fmt.Errorf("%w: empty ticker", ErrValidation)
	ErrInvalidURL        = fmt.Errorf("%w: investor relations link must be an http(s) URL", ErrValidation)
	ErrEmptyCompanyID    = fmt.Errorf("%w: empty company id", ErrValidation)
	ErrInvalidYear       = fmt.Errorf("%w: year out of range", ErrValidation)
	ErrInvalidQuarterNum = fmt.Errorf("%w: quarter number must be between 1 and 4", ErrValidation)
	ErrQuarterMismatch   = fmt.Errorf("%w: quarter key does not match year and quarter number", ErrValidation)
	ErrNonFiniteValue    = fmt.Errorf("%w: indicator value is not a finite number", ErrValidation)
)

const (
	MinYear = 1900
	MaxYear = 3000

	maxNameLen   = 200
	maxTickerLen = 12
	maxURLLen    = 500
)

// Normalize trims the company's text fields and upper-cases the ticker.
func (c *Company) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Ticker = strings.ToUpper(strings.TrimSpace(c.Ticker))
	c.InvestorRelationsURL = strings.TrimSpace(c.InvestorRelationsURL)
}

func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > maxNameLen {
		return fmt.Errorf("%w: company name too long (max %d characters)", ErrValidation, maxNameLen)
	}
	if strings.TrimSpace(c.Ticker) == "" {
		return ErrEmptyTicker
	}
	if len(c.Ticker) > maxTickerLen {
		return fmt.Errorf("%w: ticker too long (max %d characters)", ErrValidation, maxTickerLen)
	}
	if len(c.InvestorRelationsURL) > maxURLLen {
		return fmt.Errorf("%w: investor relations link too long", ErrValidation)
	}
	u, err := url.Parse(strings.TrimSpace(c.InvestorRelationsURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}

// Label is the "TICKER - Name" text used by company selectors.
func (c Company) Label() string {
	return c.Ticker + " - " + c.Name
}

// SetQuarter sets year, quarter number and the derived key together.
func (r *QuarterlyRecord) SetQuarter(q Quarter) {
	r.Year = q.Year
	r.QuarterNumber = q.Number
	r.Quarter = q.Key()
}

// Period returns the record's quarter identity.
func (r QuarterlyRecord) Period() Quarter {
	return Quarter{Year: r.Year, Number: r.QuarterNumber}
}

func (r QuarterlyRecord) Validate() error {
	if strings.TrimSpace(r.CompanyID) == "" {
		return ErrEmptyCompanyID
	}
	if r.Year < MinYear || r.Year > MaxYear {
		return ErrInvalidYear
	}
	if r.QuarterNumber < 1 || r.QuarterNumber > 4 {
		return ErrInvalidQuarterNum
	}
	if r.Quarter != QuarterKey(r.Year, r.QuarterNumber) {
		return ErrQuarterMismatch
	}
	for _, f := range Fields() {
		if v, ok := r.Value(f); ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return fmt.Errorf("%w (%s)", ErrNonFiniteValue, f)
		}
	}
	return nil
}
