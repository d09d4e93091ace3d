package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingCreate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driverbook_booking_create_total",
		Help: "Booking creation attempts grouped by outcome.",
	}, []string{"result"})

	bookingCancel = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driverbook_booking_cancel_total",
		Help: "Cancel requests grouped by outcome.",
	}, []string{"result"})

	cleanupDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driverbook_cleanup_deleted_total",
		Help: "Canceled bookings permanently deleted.",
	}, []string{"scope"})

	inviteRedeem = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driverbook_invite_redeem_total",
		Help: "Invite redemption attempts grouped by outcome.",
	}, []string{"result"})

	storeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driverbook_store_retries_total",
		Help: "Retries after transient storage failures.",
	}, []string{"op"})
)
