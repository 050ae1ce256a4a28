package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/crm/query"
)

const created = `{"id":"NEW1","success":true,"errors":[]}`

func TestCreateContact_OmitsEmptyFields(t *testing.T) {
	doer := (&fakeDoer{}).on(endpointIs("POST", "sobjects/Contact"), created)

	res, err := NewClient(doer, nil).CreateContact(context.Background(), ContactInput{FirstName: "A", LastName: "B", Email: ""})
	require.NoError(t, err)
	assert.Equal(t, "NEW1", res.ID)

	calls := doer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{"FirstName": "A", "LastName": "B"}, calls[0].Body)
}

func TestCreateLead(t *testing.T) {
	tests := []struct {
		name    string
		in      LeadInput
		want    map[string]any
		wantErr bool
	}{
		{
			name: "all fields",
			in:   LeadInput{FirstName: "Ana", LastName: "Lyst", Email: "ana@x.com", Company: "X", Phone: "123", Title: "CTO"},
			want: map[string]any{"FirstName": "Ana", "LastName": "Lyst", "Email": "ana@x.com", "Company": "X", "Phone": "123", "Title": "CTO"},
		},
		{
			name: "optional fields omitted",
			in:   LeadInput{LastName: "Lyst", Company: "X", Phone: "  "},
			want: map[string]any{"LastName": "Lyst", "Company": "X"},
		},
		{name: "missing company", in: LeadInput{LastName: "Lyst"}, wantErr: true},
		{name: "missing last name", in: LeadInput{Company: "X"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := (&fakeDoer{}).on(endpointIs("POST", "sobjects/Lead"), created)
			_, err := NewClient(doer, nil).CreateLead(context.Background(), tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, doer.Calls())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, doer.Calls()[0].Body)
		})
	}
}

func TestCreate_PropagatesFailure(t *testing.T) {
	doer := (&fakeDoer{}).fail(func(call) bool { return true }, &api.Error{Status: 400, Messages: []api.ErrorMessage{{ErrorCode: "DUPLICATES_DETECTED"}}})

	_, err := NewClient(doer, nil).CreateContact(context.Background(), ContactInput{LastName: "B"})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.HasCode("DUPLICATES_DETECTED"))
}

func TestGetRecord(t *testing.T) {
	doer := (&fakeDoer{}).on(func(c call) bool { return c.Method == "GET" }, `{"Id":"003A","Name":"Ada"}`)
	client := NewClient(doer, nil)

	rec, err := client.GetRecord(context.Background(), "Contact", "003A", []string{"Id", "Name", "Account.Name"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", rec.String("Name"))
	assert.Equal(t, "sobjects/Contact/003A?fields=Id%2CName%2CAccount.Name", doer.Calls()[0].Endpoint)

	_, err = client.GetRecord(context.Background(), "Contact/../User", "x", nil)
	assert.ErrorIs(t, err, query.ErrInvalidIdentifier)

	_, err = client.GetRecord(context.Background(), "Contact", "003A", []string{"Name, (SELECT Id FROM Cases)"})
	assert.ErrorIs(t, err, query.ErrInvalidIdentifier)

	_, err = client.GetRecord(context.Background(), "Contact", "", nil)
	assert.Error(t, err)
}

func TestUpdateAndDeleteRecord(t *testing.T) {
	doer := &fakeDoer{}
	client := NewClient(doer, nil)

	require.NoError(t, client.UpdateRecord(context.Background(), "Lead", "00QA", map[string]any{"Status": "Working"}))
	require.NoError(t, client.DeleteRecord(context.Background(), "Lead", "00QA"))

	calls := doer.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, call{Method: "PATCH", Endpoint: "sobjects/Lead/00QA", Body: map[string]any{"Status": "Working"}}, calls[0])
	assert.Equal(t, call{Method: "DELETE", Endpoint: "sobjects/Lead/00QA"}, calls[1])

	assert.Error(t, client.UpdateRecord(context.Background(), "Lead", "00QA", nil))
	assert.Error(t, client.UpdateRecord(context.Background(), "Lead", "00QA", map[string]any{"bad field": 1}))
}
