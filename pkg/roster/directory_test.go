package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/despuyt/mmsync/pkg/mattermost"
)

// fakeDirectory is an in-memory Directory for tests.
type fakeDirectory struct {
	users          map[string]*mattermost.User    // by id
	teams          map[string]*mattermost.Team    // by slug
	channels       map[string]*mattermost.Channel // by teamID/slug
	teamMembers    map[string]map[string]bool     // teamID -> userIDs
	channelMembers map[string]map[string]bool     // channelID -> userIDs

	teamLimit       int // 0 means unlimited
	lookupErr       error
	failCreateEmail string
	nextID          int
	createCalls     int
	patchCalls      int
	removedUsers    []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:          make(map[string]*mattermost.User),
		teams:          make(map[string]*mattermost.Team),
		channels:       make(map[string]*mattermost.Channel),
		teamMembers:    make(map[string]map[string]bool),
		channelMembers: make(map[string]map[string]bool),
	}
}

func (d *fakeDirectory) id(prefix string) string {
	d.nextID++
	return fmt.Sprintf("%s%d", prefix, d.nextID)
}

func (d *fakeDirectory) addUser(u mattermost.User) *mattermost.User {
	if u.ID == "" {
		u.ID = d.id("user")
	}
	d.users[u.ID] = &u
	return &u
}

func (d *fakeDirectory) addTeam(slug, displayName string) *mattermost.Team {
	t := &mattermost.Team{ID: d.id("team"), Name: slug, DisplayName: displayName}
	d.teams[slug] = t
	return t
}

func (d *fakeDirectory) addChannel(teamID, slug, displayName string) *mattermost.Channel {
	ch := &mattermost.Channel{ID: d.id("chan"), TeamID: teamID, Name: slug, DisplayName: displayName}
	d.channels[teamID+"/"+slug] = ch
	return ch
}

func (d *fakeDirectory) UserByEmail(_ context.Context, email string) (*mattermost.User, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mattermost.ErrNotFound
}

func (d *fakeDirectory) UserByUsername(_ context.Context, username string) (*mattermost.User, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	for _, u := range d.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mattermost.ErrNotFound
}

func (d *fakeDirectory) UsersByIDs(_ context.Context, ids []string) ([]mattermost.User, error) {
	var users []mattermost.User
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (d *fakeDirectory) CreateUser(_ context.Context, req mattermost.CreateUserRequest) (*mattermost.User, error) {
	d.createCalls++
	if d.failCreateEmail != "" && strings.EqualFold(req.Email, d.failCreateEmail) {
		return nil, &mattermost.APIError{ID: "app.user.save.username_exists.app_error", StatusCode: 400}
	}
	for _, u := range d.users {
		if u.Username == req.Username {
			return nil, &mattermost.APIError{ID: "app.user.save.username_exists.app_error", StatusCode: 400}
		}
	}
	return d.addUser(mattermost.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Position:  req.Position,
	}), nil
}

func (d *fakeDirectory) PatchUser(_ context.Context, userID string, req mattermost.PatchUserRequest) (*mattermost.User, error) {
	d.patchCalls++
	u, ok := d.users[userID]
	if !ok {
		return nil, mattermost.ErrNotFound
	}
	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.Position = req.Position
	u.Nickname = req.Nickname
	cp := *u
	return &cp, nil
}

func (d *fakeDirectory) UpdateUserActive(_ context.Context, userID string, active bool) error {
	u, ok := d.users[userID]
	if !ok {
		return mattermost.ErrNotFound
	}
	if active {
		u.DeleteAt = 0
	} else {
		u.DeleteAt = 1
	}
	return nil
}

func (d *fakeDirectory) TeamByName(_ context.Context, name string) (*mattermost.Team, error) {
	if t, ok := d.teams[name]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, mattermost.ErrNotFound
}

func (d *fakeDirectory) CreateTeam(_ context.Context, name, displayName string) (*mattermost.Team, error) {
	if _, ok := d.teams[name]; ok {
		return nil, &mattermost.APIError{ID: "store.sql_team.save.domain_exists.app_error", StatusCode: 400}
	}
	return d.addTeam(name, displayName), nil
}

func (d *fakeDirectory) TeamMembers(_ context.Context, teamID string) ([]mattermost.TeamMember, error) {
	var members []mattermost.TeamMember
	for userID := range d.teamMembers[teamID] {
		members = append(members, mattermost.TeamMember{TeamID: teamID, UserID: userID})
	}
	return members, nil
}

func (d *fakeDirectory) AddTeamMember(_ context.Context, teamID, userID string) error {
	set := d.teamMembers[teamID]
	if set == nil {
		set = make(map[string]bool)
		d.teamMembers[teamID] = set
	}
	if set[userID] {
		return nil // duplicate add is success
	}
	if d.teamLimit > 0 && len(set) >= d.teamLimit {
		return mattermost.ErrTeamFull
	}
	set[userID] = true
	return nil
}

func (d *fakeDirectory) RemoveTeamMember(_ context.Context, teamID, userID string) error {
	if !d.teamMembers[teamID][userID] {
		return errors.New("not a member")
	}
	delete(d.teamMembers[teamID], userID)
	d.removedUsers = append(d.removedUsers, userID)
	return nil
}

func (d *fakeDirectory) ChannelByName(_ context.Context, teamID, name string) (*mattermost.Channel, error) {
	if ch, ok := d.channels[teamID+"/"+name]; ok {
		cp := *ch
		return &cp, nil
	}
	return nil, mattermost.ErrNotFound
}

func (d *fakeDirectory) CreateChannel(_ context.Context, teamID, name, displayName string) (*mattermost.Channel, error) {
	return d.addChannel(teamID, name, displayName), nil
}

func (d *fakeDirectory) AddChannelMember(_ context.Context, channelID, userID string) error {
	set := d.channelMembers[channelID]
	if set == nil {
		set = make(map[string]bool)
		d.channelMembers[channelID] = set
	}
	set[userID] = true
	return nil
}

var _ Directory = (*fakeDirectory)(nil)
