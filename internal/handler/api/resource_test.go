//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"
	"github.com/gabpmcp/bolivar-test/internal/handler/api"
	"github.com/gabpmcp/bolivar-test/internal/handler/dto/request"
	resdto "github.com/gabpmcp/bolivar-test/internal/handler/dto/response"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"
	"github.com/gabpmcp/bolivar-test/tests/common/builder"
	"github.com/gabpmcp/bolivar-test/tests/common/httptest"
	"github.com/gabpmcp/bolivar-test/tests/common/testutil"
	commandsmock "github.com/gabpmcp/bolivar-test/tests/mock/commands"
	queriesmock "github.com/gabpmcp/bolivar-test/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ResourceHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockResourceCommands
	mockQueries  *queriesmock.MockResourceQueries
	mockLag      *queriesmock.MockLagQueries
	handler      *api.ResourceHandler
	actorID      uuid.UUID
}

func (s *ResourceHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockResourceCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockResourceQueries(s.mockCtrl)
	s.mockLag = queriesmock.NewMockLagQueries(s.mockCtrl)
	s.handler = api.NewResourceHandler(s.mockCommands, s.mockQueries, s.mockLag)
	s.actorID = uuid.New()

	// Stands in for the auth middleware
	withActor := func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			c.Set("user_id", s.actorID)
			c.Set("user_role", user.RoleAdmin)
		}
		c.Next()
	}

	s.router.POST("/api/resources", withActor, s.handler.Create)
	s.router.GET("/api/resources", withActor, s.handler.List)
	s.router.GET("/api/resources/:id", withActor, s.handler.Get)
	s.router.PATCH("/api/resources/:id", withActor, s.handler.UpdateMetadata)
}

func (s *ResourceHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestResourceHandlerSuite(t *testing.T) {
	suite.Run(t, new(ResourceHandlerTestSuite))
}

func (s *ResourceHandlerTestSuite) actor() commands.Actor {
	return commands.Actor{UserID: s.actorID, Role: user.RoleAdmin}
}

func createResourceBody(name, details string) request.CreateResourceRequest {
	return request.CreateResourceRequest{
		Command: request.CreateResourceCommand{
			Type:    "CreateResource",
			Payload: request.CreateResourcePayload{Name: name, Details: details},
		},
	}
}

func (s *ResourceHandlerTestSuite) TestCreate() {
	url := "/api/resources"
	resourceID := uuid.New()

	s.Run("success: returns 201 Created with the folded state", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), s.actor(), commands.CreateResourceInput{Name: "SalaA", Details: "Piso 1"}).
			Return(&commands.ResourceResult{ResourceID: resourceID, Name: "SalaA", Details: "Piso 1", Status: "active", Version: 1}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, createResourceBody("SalaA", "Piso 1"), "admin-token")

		var response resdto.ResourceResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Equal(resourceID, response.ResourceID)
		s.Equal("SalaA", response.Name)
		s.Equal(int64(1), response.Version)
	})

	s.Run("success: name and details arrive trimmed", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), s.actor(), commands.CreateResourceInput{Name: "SalaA", Details: "Piso 1"}).
			Return(&commands.ResourceResult{ResourceID: resourceID, Name: "SalaA", Details: "Piso 1", Status: "active", Version: 1}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, createResourceBody("  SalaA  ", " Piso 1 "), "admin-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
	})

	s.Run("error: 500 when the actor is missing from context", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, createResourceBody("SalaA", ""), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "INTERNAL_ERROR")
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		reqBody := createResourceBody("SalaA", "Piso 1")
		payloadPath := []string{"command", "payload"}

		testCases := []testCaseAuth{
			{name: "missing field: name (required)", mutate: testutil.FieldAt(payloadPath, "name", nil), expectCode: http.StatusBadRequest},
			{name: "name over 200 chars", mutate: testutil.FieldAt(payloadPath, "name", strings.Repeat("a", 201)), expectCode: http.StatusBadRequest},
			{name: "details over 2000 chars", mutate: testutil.FieldAt(payloadPath, "details", strings.Repeat("a", 2001)), expectCode: http.StatusBadRequest},
			{name: "wrong command type", mutate: testutil.FieldAt([]string{"command"}, "type", "MakeResource"), expectCode: http.StatusBadRequest},
			{name: "missing command envelope", mutate: testutil.Field("command", nil), expectCode: http.StatusBadRequest},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "admin-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "INVALID_REQUEST")
			})
		}
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedCode   string
		}{
			{
				name:           "non-admin actor",
				commandsError:  resource.ErrForbidden,
				expectedStatus: http.StatusForbidden,
				expectedCode:   "FORBIDDEN",
			},
			{
				name:           "name already taken",
				commandsError:  commands.ErrResourceNameTaken,
				expectedStatus: http.StatusConflict,
				expectedCode:   "RESOURCE_NAME_TAKEN",
			},
			{
				name:           "stream already exists",
				commandsError:  resource.ErrAlreadyExists,
				expectedStatus: http.StatusConflict,
				expectedCode:   "RESOURCE_ALREADY_EXISTS",
			},
			{
				name:           "conflict retries exhausted",
				commandsError:  commands.ErrVersionConflict,
				expectedStatus: http.StatusConflict,
				expectedCode:   "VERSION_CONFLICT",
			},
			{
				name:           "internal server error",
				commandsError:  errors.New("store unavailable"),
				expectedStatus: http.StatusInternalServerError,
				expectedCode:   "INTERNAL_ERROR",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, createResourceBody("SalaA", ""), "admin-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedCode)
			})
		}
	})
}

func (s *ResourceHandlerTestSuite) TestUpdateMetadata() {
	resourceID := uuid.New()
	url := "/api/resources/" + resourceID.String()

	newName := "SalaB"
	body := request.UpdateResourceMetadataRequest{
		Command: request.UpdateResourceMetadataCommand{
			Type:    "UpdateResourceMetadata",
			Payload: request.UpdateResourceMetadataPayload{Name: &newName},
		},
	}

	s.Run("success: returns 200 OK with the updated state", func() {
		s.mockCommands.EXPECT().UpdateMetadata(gomock.Any(), s.actor(), commands.UpdateResourceMetadataInput{ResourceID: resourceID, Name: &newName}).
			Return(&commands.ResourceResult{ResourceID: resourceID, Name: newName, Details: "Piso 1", Status: "active", Version: 2}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, body, "admin-token")

		var response resdto.ResourceResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(newName, response.Name)
		s.Equal(int64(2), response.Version)
	})

	s.Run("error: 400 on a malformed resource id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/api/resources/not-a-uuid", body, "admin-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "INVALID_REQUEST")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedCode   string
		}{
			{
				name:           "resource not found",
				commandsError:  resource.ErrNotFound,
				expectedStatus: http.StatusNotFound,
				expectedCode:   "RESOURCE_NOT_FOUND",
			},
			{
				name:           "non-admin actor",
				commandsError:  resource.ErrForbidden,
				expectedStatus: http.StatusForbidden,
				expectedCode:   "FORBIDDEN",
			},
			{
				name:           "name already taken",
				commandsError:  commands.ErrResourceNameTaken,
				expectedStatus: http.StatusConflict,
				expectedCode:   "RESOURCE_NAME_TAKEN",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().UpdateMetadata(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, body, "admin-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedCode)
			})
		}
	})
}

func (s *ResourceHandlerTestSuite) TestGet() {
	view := builder.NewResourceBuilder().BuildReadModel()
	url := "/api/resources/" + view.ResourceID.String()

	s.Run("success: returns the projection view with lag", func() {
		lastProjected := time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), view.ResourceID).
			Return(view, nil).Times(1)
		s.mockLag.EXPECT().Get(gomock.Any()).
			Return(&queries.ProjectionLagView{LastProjectedAtUTC: &lastProjected, EventsBehind: 0}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "admin-token")

		var response resdto.ResourceDetailResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(view.Name, response.Resource.Name)
		s.NotNil(response.ProjectionLag.LastProjectedAtUTC)
	})

	s.Run("error: 400 on a malformed resource id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/resources/xyz", nil, "admin-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "INVALID_REQUEST")
	})

	s.Run("error: 404 when the projection has no such resource", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), view.ResourceID).
			Return(nil, queries.ErrResourceNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "admin-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "RESOURCE_NOT_FOUND")
	})
}

func (s *ResourceHandlerTestSuite) TestList() {
	url := "/api/resources"

	s.Run("success: returns items with a continuation cursor", func() {
		views := []*queries.ResourceView{
			builder.NewResourceBuilder().WithName("SalaA").BuildReadModel(),
			builder.NewResourceBuilder().WithName("SalaB").BuildReadModel(),
		}
		s.mockQueries.EXPECT().List(gomock.Any(), (*queries.Cursor)(nil), 0).
			Return(views, &queries.Cursor{After: "next-token"}, nil).Times(1)
		s.mockLag.EXPECT().Get(gomock.Any()).
			Return(&queries.ProjectionLagView{}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "admin-token")

		var response resdto.ResourceListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response.Items, 2)
		s.NotNil(response.NextCursor)
		s.Equal("next-token", *response.NextCursor)
	})

	s.Run("success: forwards limit and cursor query params", func() {
		s.mockQueries.EXPECT().List(gomock.Any(), &queries.Cursor{After: "abc"}, 5).
			Return([]*queries.ResourceView{}, nil, nil).Times(1)
		s.mockLag.EXPECT().Get(gomock.Any()).
			Return(&queries.ProjectionLagView{}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?limit=5&cursor=abc", nil, "admin-token")

		var response resdto.ResourceListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Empty(response.Items)
		s.Nil(response.NextCursor)
	})

	s.Run("error: 400 on a non-numeric limit", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?limit=ten", nil, "admin-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "INVALID_REQUEST")
	})

	s.Run("error: 400 on an undecodable cursor", func() {
		s.mockQueries.EXPECT().List(gomock.Any(), &queries.Cursor{After: "garbage"}, 0).
			Return(nil, nil, queries.ErrInvalidCursor).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?cursor=garbage", nil, "admin-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "INVALID_REQUEST")
	})
}
