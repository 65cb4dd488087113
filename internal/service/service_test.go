package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/zekarki/WeatherAPI/internal/auth"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"github.com/zekarki/WeatherAPI/internal/repository/memory"
	"github.com/zekarki/WeatherAPI/internal/validation"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	svc      *Service
	readings *memory.ReadingRepo
	users    *memory.UserRepo
	sessions *memory.SessionRepo
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.readings = memory.NewReadingRepository()
	suite.users = memory.NewUserRepository()
	suite.sessions = memory.NewSessionRepository()
	suite.svc = New(
		suite.readings,
		memory.NewDeletionLogRepository(),
		suite.users,
		suite.sessions,
		auth.NewCredentialStore(suite.users, bcrypt.MinCost),
		auth.NewTokenIssuer("secret", "weatherapi", time.Hour),
	)
	suite.Require().NoError(suite.svc.Validate())
}

func (suite *ServiceTestSuite) insert(device string, temp, humidity float64) string {
	id, err := suite.svc.InsertReading(suite.ctx, map[string]any{
		models.FieldDeviceName:  device,
		models.FieldTemperature: temp,
		models.FieldHumidity:    humidity,
	})
	suite.Require().NoError(err)
	return id
}

func (suite *ServiceTestSuite) TestInsertThenFetch() {
	require := suite.Require()
	before := time.Now().UTC()

	id := suite.insert("Woodford_Sensor", 25.5, 60)

	r, err := suite.svc.GetReading(suite.ctx, id)
	require.NoError(err)
	require.Equal(25.5, *r.Temperature)
	require.Equal(60.0, *r.Humidity)
	require.Equal("Woodford_Sensor", r.DeviceName)
	require.False(r.Time.Before(before))
}

func (suite *ServiceTestSuite) TestBulkUpdateSkipsItemWithoutFields() {
	require := suite.Require()
	a := suite.insert("a", 10, 10)
	b := suite.insert("b", 11, 11)
	c := suite.insert("c", 12, 12)

	items, err := validation.ReadingsUpdate(map[string]any{
		"updates": []any{
			map[string]any{"id": a, "update_fields": map[string]any{models.FieldTemperature: 20.0}},
			map[string]any{"id": b},
			map[string]any{"id": c, "update_fields": map[string]any{models.FieldTemperature: 22.0}},
		},
	}, suite.svc.ReadingIDs().ValidID)
	require.NoError(err)

	n, err := suite.svc.UpdateReadings(suite.ctx, items)
	require.NoError(err)
	require.Equal(int64(2), n)

	rb, err := suite.svc.GetReading(suite.ctx, b)
	require.NoError(err)
	require.Equal(11.0, *rb.Temperature)
}

func (suite *ServiceTestSuite) TestUpdateWithSameValueModifiesNothing() {
	id := suite.insert("a", 10, 10)
	n, err := suite.svc.UpdateReading(suite.ctx, validation.UpdateItem{ID: id, Fields: map[string]any{models.FieldTemperature: 10.0}})
	suite.Require().NoError(err)
	suite.Equal(int64(0), n)
}

func (suite *ServiceTestSuite) TestLookupPriority() {
	require := suite.Require()
	now := time.Now().UTC()
	tr := &models.TimeRange{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}

	cool := suite.insert("north", 5, 50)
	suite.insert("south", 30, 50)

	r, kind, err := suite.svc.LookupReading(suite.ctx, ReadingLookup{ID: cool, DeviceName: "south", Range: tr})
	require.NoError(err)
	require.Equal(LookupByID, kind)
	require.Equal(cool, r.ID)

	r, kind, err = suite.svc.LookupReading(suite.ctx, ReadingLookup{DeviceName: "north", Range: tr})
	require.NoError(err)
	require.Equal(LookupByDeviceRange, kind)
	require.Equal("north", r.DeviceName)

	r, kind, err = suite.svc.LookupReading(suite.ctx, ReadingLookup{Range: tr})
	require.NoError(err)
	require.Equal(LookupMaxTemperature, kind)
	require.Equal(30.0, *r.Temperature)

	_, _, err = suite.svc.LookupReading(suite.ctx, ReadingLookup{DeviceName: "north"})
	require.ErrorIs(err, repository.ErrInvalidInput)
}

func (suite *ServiceTestSuite) TestDeleteReadingWritesOneLogEntry() {
	require := suite.Require()
	id := suite.insert("a", 10, 10)
	suite.insert("b", 11, 11)

	require.NoError(suite.svc.DeleteReading(suite.ctx, id))

	log, err := suite.svc.DeletionLog(suite.ctx)
	require.NoError(err)
	require.Len(log, 1)
	require.Equal(id, log[0].Reading.ID)

	_, err = suite.svc.GetReading(suite.ctx, id)
	require.ErrorIs(err, repository.ErrNotFound)

	require.ErrorIs(suite.svc.DeleteReading(suite.ctx, id), repository.ErrNotFound)
}

func (suite *ServiceTestSuite) TestCreateUserAndLogin() {
	require := suite.Require()
	identity, err := suite.svc.CreateUser(suite.ctx, "kid", "pw", models.RoleStudent)
	require.NoError(err)
	require.NotEmpty(identity.ID)
	require.NotEqual("pw", identity.PasswordHash)

	_, err = suite.svc.CreateUser(suite.ctx, "kid", "pw", models.RoleStudent)
	require.ErrorIs(err, repository.ErrDuplicate)

	res, err := suite.svc.OpenSession(suite.ctx, identity)
	require.NoError(err)
	require.NotEmpty(res.Token)

	_, err = suite.sessions.Get(suite.ctx, res.Session.ID)
	require.NoError(err)

	require.NoError(suite.svc.CloseSession(suite.ctx, res.Session.ID))
	_, err = suite.sessions.Get(suite.ctx, res.Session.ID)
	require.ErrorIs(err, repository.ErrNotFound)
}

func (suite *ServiceTestSuite) TestAnalysis() {
	require := suite.Require()
	_, err := suite.svc.InsertReading(suite.ctx, map[string]any{
		models.FieldDeviceName:    "wet",
		models.FieldTemperature:   10.0,
		models.FieldHumidity:      90.0,
		models.FieldPrecipitation: 4.2,
	})
	require.NoError(err)
	_, err = suite.svc.InsertReading(suite.ctx, map[string]any{
		models.FieldDeviceName:    "wet",
		models.FieldTemperature:   12.0,
		models.FieldHumidity:      80.0,
		models.FieldPrecipitation: 1.1,
	})
	require.NoError(err)

	peak, err := suite.svc.MaxPrecipitation(suite.ctx, "wet")
	require.NoError(err)
	require.Equal(4.2, *peak.Precipitation)

	_, err = suite.svc.MaxPrecipitation(suite.ctx, "dry")
	require.ErrorIs(err, repository.ErrNotFound)

	in, err := suite.svc.TemperatureRange(suite.ctx, 11, 13)
	require.NoError(err)
	require.Len(in, 1)

	now := time.Now().UTC()
	peaks, err := suite.svc.MaxTemperatureByDevice(suite.ctx, models.TimeRange{Start: now.Add(-time.Hour), End: now.Add(time.Hour)})
	require.NoError(err)
	require.Len(peaks, 1)
	assert.Equal(suite.T(), 12.0, *peaks[0].Value)
}

func TestUpdateUserRoles(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	svc := New(memory.NewReadingRepository(), memory.NewDeletionLogRepository(), users, memory.NewSessionRepository(),
		auth.NewCredentialStore(users, bcrypt.MinCost), auth.NewTokenIssuer("s", "i", time.Hour))

	_, err := svc.CreateUser(ctx, "a", "pw", models.RoleStudent)
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "b", "pw", models.RoleStudent)
	require.NoError(t, err)

	now := time.Now().UTC()
	n, err := svc.UpdateUserRoles(ctx, models.TimeRange{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}, models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	b, err := users.FindByUsername(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, b.Role)
}
