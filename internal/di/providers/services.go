package providers

import (
	"github.com/samber/do/v2"

	"github.com/querydeckapp/querydeck-server/internal/logger"
	"github.com/querydeckapp/querydeck-server/internal/service"
)

// ProvideCatalogService provides the query catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewCatalogService(storeHandle.Store, storeHandle.Store, log.Logger), nil
}
