package mongostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"donaid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var testWindow = models.WindowFor(time.Date(2026, time.February, 14, 12, 0, 0, 0, time.UTC), models.PeriodDaily)

func TestRecordSource_Donations(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("aggregates the window", func(mt *mtest.T) {
		src := NewRecordSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "donaid.donations", mtest.FirstBatch, bson.D{
			{Key: "count", Value: int32(3)},
			{Key: "totalAmount", Value: 450.0},
			{Key: "averageAmount", Value: 150.0},
			{Key: "maxAmount", Value: 300.0},
			{Key: "minAmount", Value: 50.0},
			{Key: "uniqueDonors", Value: int32(2)},
		}))

		stats, err := src.AggregateDonations(context.Background(), testWindow)
		require.NoError(mt, err)
		assert.Equal(mt, models.DonationStats{Count: 3, TotalAmount: 450, AverageAmount: 150, MaxAmount: 300, MinAmount: 50, UniqueDonors: 2}, stats)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "aggregate", evt.CommandName)
		assert.Equal(mt, DonationsCollection, evt.Command.Lookup("aggregate").StringValue())
	})

	mt.Run("empty window is all zeros", func(mt *mtest.T) {
		src := NewRecordSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "donaid.donations", mtest.FirstBatch))

		stats, err := src.AggregateDonations(context.Background(), testWindow)
		require.NoError(mt, err)
		assert.Equal(mt, models.DonationStats{}, stats)
	})

	mt.Run("command error", func(mt *mtest.T) {
		src := NewRecordSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11600,
			Name:    "InterruptedAtShutdown",
			Message: "interrupted at shutdown",
		}))

		_, err := src.AggregateDonations(context.Background(), testWindow)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "aggregate donations")
	})
}

func TestRecordSource_Counts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("users", func(mt *mtest.T) {
		src := NewRecordSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "donaid.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: int32(4)},
			{Key: "active", Value: int32(3)},
			{Key: "new", Value: int32(2)},
			{Key: "donors", Value: int32(2)},
			{Key: "campaignCreators", Value: int32(2)},
		}))

		stats, err := src.AggregateUsers(context.Background(), testWindow)
		require.NoError(mt, err)
		assert.Equal(mt, models.UserStats{Total: 4, Active: 3, New: 2, Donors: 2, CampaignCreators: 2}, stats)
	})

	mt.Run("campaigns", func(mt *mtest.T) {
		src := NewRecordSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "donaid.campaigns", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: int32(2)},
			{Key: "active", Value: int32(1)},
			{Key: "completed", Value: int32(1)},
			{Key: "successful", Value: int32(1)},
			{Key: "created", Value: int32(1)},
			{Key: "totalGoalAmount", Value: 6000.0},
			{Key: "totalRaisedAmount", Value: 2000.0},
		}))

		stats, err := src.AggregateCampaigns(context.Background(), testWindow)
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), stats.Successful)
		assert.Equal(mt, 6000.0, stats.TotalGoalAmount)
	})

	mt.Run("organizations", func(mt *mtest.T) {
		src := NewRecordSource(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "donaid.companies", mtest.FirstBatch, bson.D{
				{Key: "total", Value: int32(2)},
				{Key: "active", Value: int32(2)},
				{Key: "verified", Value: int32(1)},
				{Key: "new", Value: int32(1)},
			}),
			mtest.CreateCursorResponse(0, "donaid.ngos", mtest.FirstBatch, bson.D{
				{Key: "total", Value: int32(2)},
				{Key: "active", Value: int32(2)},
				{Key: "verified", Value: int32(1)},
				{Key: "new", Value: int32(1)},
				{Key: "certified12A", Value: int32(2)},
				{Key: "certified80G", Value: int32(1)},
			}),
		)

		companies, err := src.AggregateCompanies(context.Background(), testWindow)
		require.NoError(mt, err)
		assert.Equal(mt, models.CompanyStats{Total: 2, Active: 2, Verified: 1, New: 1}, companies)

		ngos, err := src.AggregateNGOs(context.Background(), testWindow)
		require.NoError(mt, err)
		assert.Equal(mt, models.NGOStats{Total: 2, Active: 2, Verified: 1, New: 1, Certified12A: 2, Certified80G: 1}, ngos)
	})
}

func TestRecordSource_Geography(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("joins user counts onto donation regions", func(mt *mtest.T) {
		src := NewRecordSource(mt.DB)
		mt.AddMockResponses(
			// countries: donations then users
			mtest.CreateCursorResponse(0, "donaid.donations", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "India"}, {Key: "donationAmount", Value: 400.0}, {Key: "donationCount", Value: int32(2)}},
				bson.D{{Key: "_id", Value: "Nepal"}, {Key: "donationAmount", Value: 50.0}, {Key: "donationCount", Value: int32(1)}},
			),
			mtest.CreateCursorResponse(0, "donaid.users", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "India"}, {Key: "userCount", Value: int32(3)}},
				bson.D{{Key: "_id", Value: "Bhutan"}, {Key: "userCount", Value: int32(9)}},
			),
			// states
			mtest.CreateCursorResponse(0, "donaid.donations", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "Goa"}, {Key: "donationAmount", Value: 300.0}, {Key: "donationCount", Value: int32(1)}},
			),
			mtest.CreateCursorResponse(0, "donaid.users", mtest.FirstBatch),
		)

		geo, err := src.AggregateGeography(context.Background(), testWindow)
		require.NoError(mt, err)

		require.Len(mt, geo.Countries, 2)
		assert.Equal(mt, models.RegionStats{Name: "India", DonationAmount: 400, DonationCount: 2, UserCount: 3}, geo.Countries[0])
		assert.Equal(mt, int64(0), geo.Countries[1].UserCount)

		require.Len(mt, geo.States, 1)
		assert.Equal(mt, "Goa", geo.States[0].Name)
		assert.Zero(mt, geo.States[0].UserCount)
	})

	mt.Run("fails when a region query fails", func(mt *mtest.T) {
		src := NewRecordSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad pipeline"}))

		_, err := src.AggregateGeography(context.Background(), testWindow)
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, context.Canceled))
	})
}
