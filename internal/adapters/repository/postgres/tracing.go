package postgres

import "go.opentelemetry.io/otel"

var tracer = otel.GetTracerProvider().Tracer("github.com/vncsmyrnk/groupdecision/internal/adapters/repository/postgres")
