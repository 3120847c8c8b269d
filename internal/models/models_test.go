package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecklistComplete(t *testing.T) {
	require.False(t, Checklist{}.Complete())
	require.False(t, Checklist{Tyres: true, Brakes: true}.Complete())
	require.False(t, Checklist{Tyres: true, Gears: true}.Complete())
	require.False(t, Checklist{Brakes: true, Gears: true}.Complete())
	require.True(t, Checklist{Tyres: true, Brakes: true, Gears: true}.Complete())
}

func TestChecklistScanAcceptsJsonbValue(t *testing.T) {
	var c Checklist
	require.NoError(t, c.Scan([]byte(`{"tyres":true,"brakes":false,"gears":true}`)))
	require.True(t, c.Tyres)
	require.False(t, c.Brakes)
	require.True(t, c.Gears)

	// Some drivers hand jsonb back as string.
	var fromString Checklist
	require.NoError(t, fromString.Scan(`{"tyres":true,"brakes":true,"gears":true}`))
	require.True(t, fromString.Complete())

	var fromNull Checklist
	require.NoError(t, fromNull.Scan(nil))
	require.False(t, fromNull.Complete())
}

func TestStringListScan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["photo-1.jpg","photo-2.jpg"]`)))
	require.Equal(t, StringList{"photo-1.jpg", "photo-2.jpg"}, l)

	var empty StringList
	require.NoError(t, empty.Scan(nil))
	require.Nil(t, empty)
}

func TestJourneyStatusValid(t *testing.T) {
	for _, status := range []JourneyStatus{
		StatusInwarded, StatusAssigned, StatusInProgress,
		StatusCompleted, StatusQcReview, StatusReadyForSale,
	} {
		require.True(t, status.Valid(), "status %s", status)
	}
	require.False(t, JourneyStatus("scrapped").Valid())
}

func TestOnlyReadyForSaleIsTerminal(t *testing.T) {
	require.True(t, StatusReadyForSale.Terminal())
	for _, status := range []JourneyStatus{
		StatusInwarded, StatusAssigned, StatusInProgress,
		StatusCompleted, StatusQcReview,
	} {
		require.False(t, status.Terminal(), "status %s", status)
	}
}
