package category

import (
	"log/slog"

	categoryDatamodel "github.com/dokterku/clinic-finance/internal/core/datamodel/category"
)

type RepositoryAPI interface {
	GetAll() ([]*categoryDatamodel.TransactionCategory, error)
	GetByID(id int64) (*categoryDatamodel.TransactionCategory, error)
	GetByName(name string) (*categoryDatamodel.TransactionCategory, error)
	Create(category *categoryDatamodel.TransactionCategory) error
	Update(category *categoryDatamodel.TransactionCategory) error
	Delete(id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAllCategories() ([]CategoryResponse, error) {
	dataCategories, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, err
	}

	var responses []CategoryResponse
	for _, dataCategory := range dataCategories {
		domainCategory := FromDataModel(dataCategory)
		if domainCategory.IsActiveCategory() {
			responses = append(responses, domainCategory.ToResponse())
		}
	}

	return responses, nil
}

func (s *Service) GetCategoryByName(name string) (*Category, error) {
	dataCategory, err := s.repo.GetByName(name)
	if err != nil {
		s.logger.Error("failed to get category from repository", "error", err, "name", name)
		return nil, err
	}
	if dataCategory == nil {
		return nil, nil
	}

	domainCategory := FromDataModel(dataCategory)
	if !domainCategory.IsActiveCategory() {
		return nil, nil
	}
	return domainCategory, nil
}

func (s *Service) IsValidCategory(name string) bool {
	category, err := s.GetCategoryByName(name)
	if err != nil {
		s.logger.Warn("error checking category validity", "name", name, "error", err)
		return false
	}
	return category != nil
}

// MonthlyLimitFor implements the budget package's LimitSource: a
// registry limit wins over the configured map, a nil return falls
// through to it.
func (s *Service) MonthlyLimitFor(name string) (*int64, error) {
	category, err := s.GetCategoryByName(name)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, nil
	}
	return category.MonthlyLimit, nil
}
