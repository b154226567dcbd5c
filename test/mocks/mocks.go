// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `go generate ./test/mocks`.
package mocks

//go:generate mockgen -source=../../internal/core/ports/warehouse.go -destination=warehouse_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/commerce.go -destination=commerce_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/sync_log.go -destination=sync_log_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/sessions.go -destination=sessions_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/report_store.go -destination=report_store_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/sync_service.go -destination=sync_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/tasks.go -destination=tasks_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/database.go -destination=database_mock.go -package=mocks
