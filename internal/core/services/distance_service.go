package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/utils/grid"
)

// DistanceService measures grid distance between two tokens of a scene
// using the alternating diagonal rule, snapped per the world's distance
// settings.
type DistanceService struct {
	tokens   ports.TokenRepository
	scenes   ports.SceneRepository
	settings ports.SettingsSvcFacade
}

func NewDistanceService(tokens ports.TokenRepository, scenes ports.SceneRepository, settings ports.SettingsSvcFacade) *DistanceService {
	return &DistanceService{tokens: tokens, scenes: scenes, settings: settings}
}

func (s *DistanceService) Measure(ctx context.Context, worldID, fromTokenID, toTokenID string) (*ports.DistanceMeasurement, error) {
	from, err := s.tokens.FindTokenByID(ctx, fromTokenID)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", fromTokenID, err)
	}
	to, err := s.tokens.FindTokenByID(ctx, toTokenID)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", toTokenID, err)
	}
	if from.WorldID != worldID || to.WorldID != worldID {
		return nil, fmt.Errorf("%w: tokens belong to another world", apperrors.ErrForbidden)
	}
	if from.SceneID != to.SceneID {
		return nil, fmt.Errorf("%w: tokens are on different scenes", apperrors.ErrValidation)
	}
	scene, err := s.scenes.FindSceneByID(ctx, from.SceneID)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", from.SceneID, err)
	}

	fw, fh := from.Footprint()
	tw, th := to.Footprint()
	spaces := grid.MinSpaces(
		grid.Rect{X: from.GridX, Y: from.GridY, W: fw, H: fh},
		grid.Rect{X: to.GridX, Y: to.GridY, W: tw, H: th},
	)

	gridDistance := scene.GridDistance
	if gridDistance <= 0 {
		gridDistance = 1
	}
	raw := float64(spaces) * gridDistance
	step := grid.ComputeStep(s.stepSource(ctx, worldID), gridDistance, s.numberSetting(ctx, worldID, domain.SettingDistanceStepFraction), s.numberSetting(ctx, worldID, domain.SettingDistanceCustomStep))
	distance := grid.RoundToStep(raw, step, s.roundMode(ctx, worldID))

	return &ports.DistanceMeasurement{
		Spaces:   spaces,
		Distance: distance,
		Units:    scene.GridUnits,
		Label:    formatDistance(distance, scene.GridUnits),
	}, nil
}

func (s *DistanceService) stepSource(ctx context.Context, worldID string) grid.StepSource {
	raw, err := s.settings.Get(ctx, worldID, "", domain.SettingDistanceStepSource)
	if err != nil {
		return grid.StepCell
	}
	str, _ := raw.(string)
	return grid.StepSource(str)
}

func (s *DistanceService) roundMode(ctx context.Context, worldID string) grid.RoundMode {
	raw, err := s.settings.Get(ctx, worldID, "", domain.SettingDistanceRoundMode)
	if err != nil {
		return grid.RoundNearest
	}
	str, _ := raw.(string)
	return grid.RoundMode(str)
}

func (s *DistanceService) numberSetting(ctx context.Context, worldID, key string) float64 {
	raw, err := s.settings.Get(ctx, worldID, "", key)
	if err != nil {
		return 0
	}
	n, _ := raw.(float64)
	return n
}

func formatDistance(distance float64, units string) string {
	label := strconv.FormatFloat(distance, 'f', -1, 64)
	if units == "" {
		return label
	}
	return label + " " + units
}
