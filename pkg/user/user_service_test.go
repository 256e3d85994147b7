package user

import (
	migration "Recipegram-Backend/cmd/database/migrate"
	"Recipegram-Backend/domain"
	"Recipegram-Backend/entities"
	"Recipegram-Backend/pkg/jwt"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(db))
	return db
}

func newTestService(t *testing.T) (UserService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewUserService(NewUserRepository(db), jwt.NewJWTService()), db
}

func registerUser(t *testing.T, service UserService, username string) domain.UserResponse {
	t.Helper()
	res, err := service.Register(context.Background(), domain.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		Password:  "s3cret-pass",
		FirstName: "Test",
		LastName:  "Tester",
	})
	require.NoError(t, err)
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	created := registerUser(t, service, "alice")
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "alice@example.com", created.Email)

	_, err := service.Register(ctx, domain.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice2",
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = service.Register(ctx, domain.RegisterRequest{
		Email:    "other@example.com",
		Username: "alice",
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrUsernameAlreadyTaken)

	login, err := service.Login(ctx, domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)

	_, err = service.Login(ctx, domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-pass",
	})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)

	_, err = service.Login(ctx, domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)
}

func TestSetPassword(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	created := registerUser(t, service, "alice")

	err := service.SetPassword(ctx, domain.SetPasswordRequest{
		CurrentPassword: "wrong-pass",
		NewPassword:     "new-pass-123",
	}, created.ID)
	assert.ErrorIs(t, err, domain.ErrPasswordDoesNotMatch)

	err = service.SetPassword(ctx, domain.SetPasswordRequest{
		CurrentPassword: "s3cret-pass",
		NewPassword:     "new-pass-123",
	}, created.ID)
	require.NoError(t, err)

	_, err = service.Login(ctx, domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "new-pass-123",
	})
	assert.NoError(t, err)
}

func TestSubscribeLifecycle(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	subscriber := registerUser(t, service, "alice")
	author := registerUser(t, service, "bob")

	_, err := service.Subscribe(ctx, subscriber.ID, subscriber.ID)
	assert.ErrorIs(t, err, domain.ErrSelfSubscription)

	_, err = service.Subscribe(ctx, uuid.NewString(), subscriber.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	res, err := service.Subscribe(ctx, author.ID, subscriber.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", res.Username)
	assert.True(t, res.IsSubscribed)

	_, err = service.Subscribe(ctx, author.ID, subscriber.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)

	// the flag is viewer dependent
	viewed, err := service.GetUserByID(ctx, author.ID, subscriber.ID)
	require.NoError(t, err)
	assert.True(t, viewed.IsSubscribed)

	viewed, err = service.GetUserByID(ctx, author.ID, "")
	require.NoError(t, err)
	assert.False(t, viewed.IsSubscribed)

	require.NoError(t, service.Unsubscribe(ctx, author.ID, subscriber.ID))
	err = service.Unsubscribe(ctx, author.ID, subscriber.ID)
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestGetSubscriptionsWithRecipes(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	subscriber := registerUser(t, service, "alice")
	author := registerUser(t, service, "bob")

	authorUUID := uuid.MustParse(author.ID)
	for _, name := range []string{"Bread", "Buns", "Crepes"} {
		require.NoError(t, db.Create(&entities.Recipe{
			ID:          uuid.New(),
			AuthorID:    authorUUID,
			Name:        name,
			Text:        "Bake it.",
			CookingTime: 20,
		}).Error)
	}

	_, err := service.Subscribe(ctx, author.ID, subscriber.ID)
	require.NoError(t, err)

	subscriptions, count, err := service.GetSubscriptions(ctx, subscriber.ID, 0, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, subscriptions, 1)
	assert.Equal(t, "bob", subscriptions[0].Username)
	assert.EqualValues(t, 3, subscriptions[0].RecipesCount)
	assert.Len(t, subscriptions[0].Recipes, 3)

	// recipes_limit caps the embedded list but not the count
	subscriptions, _, err = service.GetSubscriptions(ctx, subscriber.ID, 1, 1, 20)
	require.NoError(t, err)
	require.Len(t, subscriptions, 1)
	assert.EqualValues(t, 3, subscriptions[0].RecipesCount)
	assert.Len(t, subscriptions[0].Recipes, 1)
}

func TestGetUsersListsSubscriptionFlag(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	subscriber := registerUser(t, service, "alice")
	author := registerUser(t, service, "bob")

	_, err := service.Subscribe(ctx, author.ID, subscriber.ID)
	require.NoError(t, err)

	users, count, err := service.GetUsers(ctx, 1, 20, subscriber.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	flags := map[string]bool{}
	for _, u := range users {
		flags[u.Username] = u.IsSubscribed
	}
	assert.True(t, flags["bob"])
	assert.False(t, flags["alice"])
}
