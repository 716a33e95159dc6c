package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/ledgerlog/ledger/pkg/types"
)

const accountServiceName = "ledger.AccountService"

// AccountServer is the server API for the account service
type AccountServer interface {
	Register(ctx context.Context, in *RegisterRequest) (*AccountReply, error)
	Login(ctx context.Context, in *LoginRequest) (*LoginReply, error)
	Refresh(ctx context.Context, in *RefreshRequest) (*LoginReply, error)
	Logout(ctx context.Context, in *LogoutRequest) (*Empty, error)
	GetAccount(ctx context.Context, in *GetAccountRequest) (*AccountReply, error)
	UpdateName(ctx context.Context, in *UpdateNameRequest) (*AccountReply, error)
	ChangePassword(ctx context.Context, in *ChangePasswordRequest) (*Empty, error)

	CreateProject(ctx context.Context, in *CreateProjectRequest) (*ProjectReply, error)
	ListProjects(ctx context.Context, in *ListProjectsRequest) (*ProjectListReply, error)
	GetProjectBySlug(ctx context.Context, in *GetProjectBySlugRequest) (*ProjectReply, error)

	CreateApiKey(ctx context.Context, in *CreateApiKeyRequest) (*CreateApiKeyReply, error)
	ValidateApiKey(ctx context.Context, in *ValidateApiKeyRequest) (*types.KeyValidation, error)
	RevokeApiKey(ctx context.Context, in *RevokeApiKeyRequest) (*RevokeApiKeyReply, error)
	ListApiKeys(ctx context.Context, in *ListApiKeysRequest) (*ApiKeyListReply, error)

	GetDailyUsage(ctx context.Context, in *DailyUsageRequest) (*DailyUsageReply, error)

	GetDashboardPanels(ctx context.Context, in *PanelListRequest) (*PanelListReply, error)
	CreateDashboardPanel(ctx context.Context, in *CreatePanelRequest) (*PanelReply, error)
	UpdateDashboardPanel(ctx context.Context, in *UpdatePanelRequest) (*PanelReply, error)
	DeleteDashboardPanel(ctx context.Context, in *DeletePanelRequest) (*Empty, error)

	GetNotificationPreferences(ctx context.Context, in *PreferencesRequest) (*PreferencesReply, error)
	PutNotificationPreferences(ctx context.Context, in *PutPreferencesRequest) (*Empty, error)
}

// AccountServiceDesc wires AccountServer into a grpc.Server
var AccountServiceDesc = grpc.ServiceDesc{
	ServiceName: accountServiceName,
	HandlerType: (*AccountServer)(nil),
	Methods: []grpc.MethodDesc{
		unary[RegisterRequest](accountServiceName, "Register", func(srv interface{}, ctx context.Context, in *RegisterRequest) (interface{}, error) {
			return srv.(AccountServer).Register(ctx, in)
		}),
		unary[LoginRequest](accountServiceName, "Login", func(srv interface{}, ctx context.Context, in *LoginRequest) (interface{}, error) {
			return srv.(AccountServer).Login(ctx, in)
		}),
		unary[RefreshRequest](accountServiceName, "Refresh", func(srv interface{}, ctx context.Context, in *RefreshRequest) (interface{}, error) {
			return srv.(AccountServer).Refresh(ctx, in)
		}),
		unary[LogoutRequest](accountServiceName, "Logout", func(srv interface{}, ctx context.Context, in *LogoutRequest) (interface{}, error) {
			return srv.(AccountServer).Logout(ctx, in)
		}),
		unary[GetAccountRequest](accountServiceName, "GetAccount", func(srv interface{}, ctx context.Context, in *GetAccountRequest) (interface{}, error) {
			return srv.(AccountServer).GetAccount(ctx, in)
		}),
		unary[UpdateNameRequest](accountServiceName, "UpdateName", func(srv interface{}, ctx context.Context, in *UpdateNameRequest) (interface{}, error) {
			return srv.(AccountServer).UpdateName(ctx, in)
		}),
		unary[ChangePasswordRequest](accountServiceName, "ChangePassword", func(srv interface{}, ctx context.Context, in *ChangePasswordRequest) (interface{}, error) {
			return srv.(AccountServer).ChangePassword(ctx, in)
		}),
		unary[CreateProjectRequest](accountServiceName, "CreateProject", func(srv interface{}, ctx context.Context, in *CreateProjectRequest) (interface{}, error) {
			return srv.(AccountServer).CreateProject(ctx, in)
		}),
		unary[ListProjectsRequest](accountServiceName, "ListProjects", func(srv interface{}, ctx context.Context, in *ListProjectsRequest) (interface{}, error) {
			return srv.(AccountServer).ListProjects(ctx, in)
		}),
		unary[GetProjectBySlugRequest](accountServiceName, "GetProjectBySlug", func(srv interface{}, ctx context.Context, in *GetProjectBySlugRequest) (interface{}, error) {
			return srv.(AccountServer).GetProjectBySlug(ctx, in)
		}),
		unary[CreateApiKeyRequest](accountServiceName, "CreateApiKey", func(srv interface{}, ctx context.Context, in *CreateApiKeyRequest) (interface{}, error) {
			return srv.(AccountServer).CreateApiKey(ctx, in)
		}),
		unary[ValidateApiKeyRequest](accountServiceName, "ValidateApiKey", func(srv interface{}, ctx context.Context, in *ValidateApiKeyRequest) (interface{}, error) {
			return srv.(AccountServer).ValidateApiKey(ctx, in)
		}),
		unary[RevokeApiKeyRequest](accountServiceName, "RevokeApiKey", func(srv interface{}, ctx context.Context, in *RevokeApiKeyRequest) (interface{}, error) {
			return srv.(AccountServer).RevokeApiKey(ctx, in)
		}),
		unary[ListApiKeysRequest](accountServiceName, "ListApiKeys", func(srv interface{}, ctx context.Context, in *ListApiKeysRequest) (interface{}, error) {
			return srv.(AccountServer).ListApiKeys(ctx, in)
		}),
		unary[DailyUsageRequest](accountServiceName, "GetDailyUsage", func(srv interface{}, ctx context.Context, in *DailyUsageRequest) (interface{}, error) {
			return srv.(AccountServer).GetDailyUsage(ctx, in)
		}),
		unary[PanelListRequest](accountServiceName, "GetDashboardPanels", func(srv interface{}, ctx context.Context, in *PanelListRequest) (interface{}, error) {
			return srv.(AccountServer).GetDashboardPanels(ctx, in)
		}),
		unary[CreatePanelRequest](accountServiceName, "CreateDashboardPanel", func(srv interface{}, ctx context.Context, in *CreatePanelRequest) (interface{}, error) {
			return srv.(AccountServer).CreateDashboardPanel(ctx, in)
		}),
		unary[UpdatePanelRequest](accountServiceName, "UpdateDashboardPanel", func(srv interface{}, ctx context.Context, in *UpdatePanelRequest) (interface{}, error) {
			return srv.(AccountServer).UpdateDashboardPanel(ctx, in)
		}),
		unary[DeletePanelRequest](accountServiceName, "DeleteDashboardPanel", func(srv interface{}, ctx context.Context, in *DeletePanelRequest) (interface{}, error) {
			return srv.(AccountServer).DeleteDashboardPanel(ctx, in)
		}),
		unary[PreferencesRequest](accountServiceName, "GetNotificationPreferences", func(srv interface{}, ctx context.Context, in *PreferencesRequest) (interface{}, error) {
			return srv.(AccountServer).GetNotificationPreferences(ctx, in)
		}),
		unary[PutPreferencesRequest](accountServiceName, "PutNotificationPreferences", func(srv interface{}, ctx context.Context, in *PutPreferencesRequest) (interface{}, error) {
			return srv.(AccountServer).PutNotificationPreferences(ctx, in)
		}),
	},
}

// AccountClient is the typed client for the account service
type AccountClient struct {
	cc grpc.ClientConnInterface
}

// NewAccountClient creates an account service client on an open connection
func NewAccountClient(cc grpc.ClientConnInterface) *AccountClient {
	return &AccountClient{cc: cc}
}

func (c *AccountClient) Register(ctx context.Context, in *RegisterRequest) (*AccountReply, error) {
	return invoke[AccountReply](ctx, c.cc, "/ledger.AccountService/Register", in)
}

func (c *AccountClient) Login(ctx context.Context, in *LoginRequest) (*LoginReply, error) {
	return invoke[LoginReply](ctx, c.cc, "/ledger.AccountService/Login", in)
}

func (c *AccountClient) Refresh(ctx context.Context, in *RefreshRequest) (*LoginReply, error) {
	return invoke[LoginReply](ctx, c.cc, "/ledger.AccountService/Refresh", in)
}

func (c *AccountClient) Logout(ctx context.Context, in *LogoutRequest) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "/ledger.AccountService/Logout", in)
}

func (c *AccountClient) GetAccount(ctx context.Context, in *GetAccountRequest) (*AccountReply, error) {
	return invoke[AccountReply](ctx, c.cc, "/ledger.AccountService/GetAccount", in)
}

func (c *AccountClient) UpdateName(ctx context.Context, in *UpdateNameRequest) (*AccountReply, error) {
	return invoke[AccountReply](ctx, c.cc, "/ledger.AccountService/UpdateName", in)
}

func (c *AccountClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "/ledger.AccountService/ChangePassword", in)
}

func (c *AccountClient) CreateProject(ctx context.Context, in *CreateProjectRequest) (*ProjectReply, error) {
	return invoke[ProjectReply](ctx, c.cc, "/ledger.AccountService/CreateProject", in)
}

func (c *AccountClient) ListProjects(ctx context.Context, in *ListProjectsRequest) (*ProjectListReply, error) {
	return invoke[ProjectListReply](ctx, c.cc, "/ledger.AccountService/ListProjects", in)
}

func (c *AccountClient) GetProjectBySlug(ctx context.Context, in *GetProjectBySlugRequest) (*ProjectReply, error) {
	return invoke[ProjectReply](ctx, c.cc, "/ledger.AccountService/GetProjectBySlug", in)
}

func (c *AccountClient) CreateApiKey(ctx context.Context, in *CreateApiKeyRequest) (*CreateApiKeyReply, error) {
	return invoke[CreateApiKeyReply](ctx, c.cc, "/ledger.AccountService/CreateApiKey", in)
}

func (c *AccountClient) ValidateApiKey(ctx context.Context, in *ValidateApiKeyRequest) (*types.KeyValidation, error) {
	return invoke[types.KeyValidation](ctx, c.cc, "/ledger.AccountService/ValidateApiKey", in)
}

func (c *AccountClient) RevokeApiKey(ctx context.Context, in *RevokeApiKeyRequest) (*RevokeApiKeyReply, error) {
	return invoke[RevokeApiKeyReply](ctx, c.cc, "/ledger.AccountService/RevokeApiKey", in)
}

func (c *AccountClient) ListApiKeys(ctx context.Context, in *ListApiKeysRequest) (*ApiKeyListReply, error) {
	return invoke[ApiKeyListReply](ctx, c.cc, "/ledger.AccountService/ListApiKeys", in)
}

func (c *AccountClient) GetDailyUsage(ctx context.Context, in *DailyUsageRequest) (*DailyUsageReply, error) {
	return invoke[DailyUsageReply](ctx, c.cc, "/ledger.AccountService/GetDailyUsage", in)
}

func (c *AccountClient) GetDashboardPanels(ctx context.Context, in *PanelListRequest) (*PanelListReply, error) {
	return invoke[PanelListReply](ctx, c.cc, "/ledger.AccountService/GetDashboardPanels", in)
}

func (c *AccountClient) CreateDashboardPanel(ctx context.Context, in *CreatePanelRequest) (*PanelReply, error) {
	return invoke[PanelReply](ctx, c.cc, "/ledger.AccountService/CreateDashboardPanel", in)
}

func (c *AccountClient) UpdateDashboardPanel(ctx context.Context, in *UpdatePanelRequest) (*PanelReply, error) {
	return invoke[PanelReply](ctx, c.cc, "/ledger.AccountService/UpdateDashboardPanel", in)
}

func (c *AccountClient) DeleteDashboardPanel(ctx context.Context, in *DeletePanelRequest) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "/ledger.AccountService/DeleteDashboardPanel", in)
}

func (c *AccountClient) GetNotificationPreferences(ctx context.Context, in *PreferencesRequest) (*PreferencesReply, error) {
	return invoke[PreferencesReply](ctx, c.cc, "/ledger.AccountService/GetNotificationPreferences", in)
}

func (c *AccountClient) PutNotificationPreferences(ctx context.Context, in *PutPreferencesRequest) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "/ledger.AccountService/PutNotificationPreferences", in)
}
