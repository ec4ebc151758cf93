// Package metrics defines the custom Prometheus metrics for the accounts API.
// It is the single source of truth for metric names, labels, and help strings.
// All metrics register themselves with the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// AccountsCreatedTotal counts successfully created accounts.
var AccountsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of accounts created.",
	},
)

// AccountsUpdatedTotal counts successfully persisted partial updates.
var AccountsUpdatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updated_total",
		Help:      "Total number of account updates persisted.",
	},
)

// AccountsDeletedTotal counts successful hard deletes.
var AccountsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deleted_total",
		Help:      "Total number of accounts deleted.",
	},
)

// UniquenessConflictsTotal counts rejected writes due to username/email
// collisions.
// Label:
//   - field: "username" or "email"
var UniquenessConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uniqueness_conflicts_total",
		Help:      "Total number of writes rejected because of a username or email collision.",
	},
	[]string{"field"},
)

// IdentityLoadsTotal counts identity lookups performed for the
// authentication layer.
// Label:
//   - result: "ok" or "not_found"
var IdentityLoadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_loads_total",
		Help:      "Total number of identity lookups, labelled by result.",
	},
	[]string{"result"},
)
