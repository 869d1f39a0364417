package graph

// Tool I/O types for the operation services.

type Message struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	From     string `json:"from,omitempty"`
	Received string `json:"received,omitempty"`
	Preview  string `json:"preview,omitempty"`
}

type ListMailInput struct {
	Top int `json:"top,omitempty" description:"number of messages to return"`
	// Optional ISO8601 (RFC3339) date-time filters on received time.
	SinceISO string `json:"sinceISO,omitempty" description:"receivedDateTime >= this timestamp (inclusive)"`
	UntilISO string `json:"untilISO,omitempty" description:"receivedDateTime <= this timestamp (inclusive)"`
	// Advanced OData options. If set, these override the derived filter/order.
	Filter  string   `json:"filter,omitempty" description:"OData $filter expression"`
	OrderBy []string `json:"orderBy,omitempty" description:"OData $orderby fields (e.g., ['receivedDateTime DESC'])"`
	// FetchAll follows pagination cursors until all messages are returned.
	FetchAll bool `json:"fetchAll,omitempty"`
}

type ListMailOutput struct {
	Messages []Message `json:"messages,omitempty"`
	// MorePages signals that results were truncated; repeat with fetchAll.
	MorePages bool `json:"morePages,omitempty"`
}

type SendMailInput struct {
	To         []string `json:"to"`
	Cc         []string `json:"cc,omitempty"`
	Subject    string   `json:"subject"`
	BodyText   string   `json:"bodyText,omitempty"`
	BodyHTML   string   `json:"bodyHtml,omitempty"`
	Importance string   `json:"importance,omitempty" description:"Low, Normal or High"`
	// Attachments are file paths or URLs readable by the server.
	Attachments []string `json:"attachments,omitempty"`
}

type CalendarEvent struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	StartISO  string `json:"startISO"`
	EndISO    string `json:"endISO"`
	Location  string `json:"location,omitempty"`
	Organizer string `json:"organizer,omitempty"`
}

type ListEventsInput struct {
	// List events between now and now+DaysAhead (default 7).
	DaysAhead int      `json:"daysAhead,omitempty"`
	Filter    string   `json:"filter,omitempty" description:"OData $filter for events"`
	OrderBy   []string `json:"orderBy,omitempty" description:"OData $orderby fields"`
	FetchAll  bool     `json:"fetchAll,omitempty"`
}

type ListEventsOutput struct {
	Events    []CalendarEvent `json:"events,omitempty"`
	MorePages bool            `json:"morePages,omitempty"`
}

type CreateEventInput struct {
	Subject   string   `json:"subject"`
	StartISO  string   `json:"startISO"`
	EndISO    string   `json:"endISO"`
	TimeZone  string   `json:"timeZone,omitempty"`
	Location  string   `json:"location,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
	BodyText  string   `json:"bodyText,omitempty"`
}

type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
	DueISO string `json:"dueISO,omitempty"`
}

type ListTasksInput struct {
	Top     int      `json:"top,omitempty"`
	Filter  string   `json:"filter,omitempty" description:"OData $filter for tasks (applied per list)"`
	OrderBy []string `json:"orderBy,omitempty" description:"OData $orderby fields (applied per list)"`
}

type ListTasksOutput struct {
	Tasks []Task `json:"tasks,omitempty"`
}

type CreateTaskInput struct {
	Title    string `json:"title"`
	BodyText string `json:"bodyText,omitempty"`
	DueISO   string `json:"dueISO,omitempty"`
}

type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName,omitempty"`
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
	Mail              string `json:"mail,omitempty"`
	JobTitle          string `json:"jobTitle,omitempty"`
}

type ListUsersInput struct {
	Top     int      `json:"top,omitempty"`
	Filter  string   `json:"filter,omitempty" description:"OData $filter (advanced operators supported)"`
	Search  string   `json:"search,omitempty" description:"OData $search expression, e.g. \"displayName:ana\""`
	OrderBy []string `json:"orderBy,omitempty"`
	// FetchAll follows pagination cursors until all users are returned.
	FetchAll bool `json:"fetchAll,omitempty"`
}

type ListUsersOutput struct {
	Users     []User `json:"users,omitempty"`
	MorePages bool   `json:"morePages,omitempty"`
}

type GetUserInput struct {
	// ID is the user's object id or userPrincipalName.
	ID string `json:"id"`
}

type Group struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Mail        string `json:"mail,omitempty"`
	Description string `json:"description,omitempty"`
}

type ListGroupsInput struct {
	Top      int    `json:"top,omitempty"`
	Filter   string `json:"filter,omitempty"`
	FetchAll bool   `json:"fetchAll,omitempty"`
}

type ListGroupsOutput struct {
	Groups    []Group `json:"groups,omitempty"`
	MorePages bool    `json:"morePages,omitempty"`
}

type ListGroupMembersInput struct {
	GroupID  string `json:"groupId"`
	Top      int    `json:"top,omitempty"`
	FetchAll bool   `json:"fetchAll,omitempty"`
}

type ListGroupMembersOutput struct {
	Members   []User `json:"members,omitempty"`
	MorePages bool   `json:"morePages,omitempty"`
}

type Subscription struct {
	ID                 string `json:"id"`
	Resource           string `json:"resource,omitempty"`
	ChangeType         string `json:"changeType,omitempty"`
	NotificationURL    string `json:"notificationUrl,omitempty"`
	ExpirationDateTime string `json:"expirationDateTime,omitempty"`
	ClientState        string `json:"clientState,omitempty"`
}

type ListSubscriptionsOutput struct {
	Subscriptions []Subscription `json:"subscriptions,omitempty"`
}

type CreateSubscriptionInput struct {
	Resource        string `json:"resource" description:"e.g. /me/messages"`
	ChangeType      string `json:"changeType,omitempty" description:"created, updated, deleted (comma separated)"`
	NotificationURL string `json:"notificationUrl"`
	// ExpirationISO defaults to one hour from now when empty.
	ExpirationISO string `json:"expirationISO,omitempty"`
}

type RenewSubscriptionInput struct {
	ID            string `json:"id"`
	ExpirationISO string `json:"expirationISO,omitempty"`
}

type DeleteSubscriptionInput struct {
	ID string `json:"id"`
}

type AzureResource struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
}

type ListResourcesInput struct {
	SubscriptionID string `json:"subscriptionId"`
	// APIVersion defaults to the Resources provider's stable version.
	APIVersion string `json:"apiVersion,omitempty"`
	Filter     string `json:"filter,omitempty" description:"OData $filter, e.g. resourceType eq 'Microsoft.Web/sites'"`
	FetchAll   bool   `json:"fetchAll,omitempty"`
}

type ListResourcesOutput struct {
	Resources []AzureResource `json:"resources,omitempty"`
	MorePages bool            `json:"morePages,omitempty"`
}
