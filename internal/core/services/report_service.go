package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
)

const householdReportSheet = "Households"

var householdReportHeaders = []string{
	"Zone", "House Number", "Address", "Residents", "Average Rating", "Ratings",
}

// ReportService renders spreadsheet reports
type ReportService struct {
	households repositories.HouseholdRepository
	ratings    repositories.RatingRepository
	scoper
	log *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(store *repositories.Store, log *zap.Logger) *ReportService {
	return &ReportService{
		households: store.Households,
		ratings:    store.Ratings,
		scoper:     scoper{zones: store.Zones},
		log:        log,
	}
}

// HouseholdRatingRow is one line of the household ratings report
type HouseholdRatingRow struct {
	Zone           string
	HouseNumber    string
	Address        string
	NumOfResidents int
	AverageRating  float64
	RatingCount    int64
}

// HouseholdRatingRows collects the report rows visible to actor, ordered by zone and house number
func (s *ReportService) HouseholdRatingRows(ctx context.Context, actor domain.Actor) ([]HouseholdRatingRow, error) {
	if !actor.IsAdmin() && !actor.IsLeader() {
		return nil, domain.NewError(domain.ErrNotAuthorized, "only leaders and admins can export reports")
	}

	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	households, _, err := s.households.List(ctx, repositories.HouseholdFilter{Scope: scope}, repositories.ListOptions{})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(households))
	for _, h := range households {
		ids = append(ids, h.ID)
	}
	counts, err := s.ratings.CountByHousehold(ctx, ids)
	if err != nil {
		return nil, err
	}

	zoneNames := make(map[string]string)
	rows := make([]HouseholdRatingRow, 0, len(households))
	for _, h := range households {
		name, ok := zoneNames[h.ZoneID]
		if !ok {
			name, err = s.zoneName(ctx, h)
			if err != nil {
				return nil, err
			}
			zoneNames[h.ZoneID] = name
		}
		rows = append(rows, HouseholdRatingRow{
			Zone:           name,
			HouseNumber:    h.HouseNumber,
			Address:        h.Address,
			NumOfResidents: h.NumOfResidents,
			AverageRating:  h.AverageRating,
			RatingCount:    counts[h.ID],
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Zone != rows[j].Zone {
			return rows[i].Zone < rows[j].Zone
		}
		return rows[i].HouseNumber < rows[j].HouseNumber
	})
	return rows, nil
}

func (s *ReportService) zoneName(ctx context.Context, h *models.Household) (string, error) {
	zone, err := s.zoneOf(ctx, h.ZoneID)
	if err != nil {
		return "", err
	}
	if zone == nil {
		return h.ZoneID, nil
	}
	return zone.Name, nil
}

// HouseholdRatings renders the household ratings report as an xlsx workbook
func (s *ReportService) HouseholdRatings(ctx context.Context, actor domain.Actor) ([]byte, error) {
	rows, err := s.HouseholdRatingRows(ctx, actor)
	if err != nil {
		return nil, err
	}

	data, err := renderHouseholdRatings(rows)
	if err != nil {
		s.log.Error("failed to render household report", zap.Error(err))
		return nil, err
	}
	s.log.Info("household report exported", zap.String("by", actor.ID), zap.Int("rows", len(rows)))
	return data, nil
}

func renderHouseholdRatings(rows []HouseholdRatingRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(householdReportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetSheetRow(householdReportSheet, "A1", &householdReportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(householdReportSheet, "A1", "F1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(householdReportSheet, "A", "C", 24); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{r.Zone, r.HouseNumber, r.Address, r.NumOfResidents, r.AverageRating, r.RatingCount}
		if err := f.SetSheetRow(householdReportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(householdReportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
