package team_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/okian/huddle/internal/domain/team"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseID(t *testing.T) {
	Convey("Given team identifier parsing", t, func() {
		Convey("When the value is a UUID", func() {
			raw := uuid.NewString()
			id, err := team.ParseID(raw)

			Convey("Then it should be accepted", func() {
				So(err, ShouldBeNil)
				So(string(id), ShouldEqual, raw)
			})
		})

		Convey("When the value is not a UUID", func() {
			_, err := team.ParseID("not-a-uuid")

			Convey("Then a validation error should be returned", func() {
				So(err, ShouldNotBeNil)
				var verr *team.ValidationError
				So(err, ShouldHaveSameTypeAs, verr)
			})
		})

		Convey("When generating a fresh ID", func() {
			id := team.NewID()

			Convey("Then it should round-trip through parsing", func() {
				parsed, err := team.ParseID(string(id))
				So(err, ShouldBeNil)
				So(parsed, ShouldEqual, id)
			})
		})
	})
}

func TestParseParticipantID(t *testing.T) {
	Convey("Given participant identifier parsing", t, func() {
		Convey("When the value is a UUID", func() {
			raw := uuid.NewString()
			id, err := team.ParseParticipantID(raw)
			So(err, ShouldBeNil)
			So(string(id), ShouldEqual, raw)
		})

		Convey("When the value is malformed", func() {
			_, err := team.ParseParticipantID("")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseName(t *testing.T) {
	Convey("Given team name parsing", t, func() {
		Convey("When the value is a single lowercase letter", func() {
			for _, raw := range []string{"a", "m", "z"} {
				name, err := team.ParseName(raw)
				So(err, ShouldBeNil)
				So(string(name), ShouldEqual, raw)
			}
		})

		Convey("When the value is empty", func() {
			_, err := team.ParseName("")
			So(err, ShouldNotBeNil)
		})

		Convey("When the value has more than one letter", func() {
			_, err := team.ParseName("ab")
			So(err, ShouldNotBeNil)
		})

		Convey("When the value is uppercase or non-alphabetic", func() {
			for _, raw := range []string{"A", "1", "-"} {
				_, err := team.ParseName(raw)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given team creation", t, func() {
		name, err := team.ParseName("a")
		So(err, ShouldBeNil)

		Convey("When creating two teams with the same name", func() {
			first := team.New(name)
			second := team.New(name)

			Convey("Then each should get a distinct UUID identifier", func() {
				So(first.ID, ShouldNotEqual, second.ID)
				_, err := team.ParseID(string(first.ID))
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestConsistencyResults(t *testing.T) {
	Convey("Given consistency result constructors", t, func() {
		teamID := team.NewID()
		sole := team.MemberInfo{ParticipantID: "p1", Name: "alice"}

		Convey("When the team is consistent", func() {
			r := team.ConsistencyOK()
			So(r.IsOK(), ShouldBeTrue)
			So(r.Kind, ShouldEqual, team.KindOK)
		})

		Convey("When the team is at the minimum", func() {
			remaining := []team.MemberInfo{sole, {ParticipantID: "p2", Name: "bob"}}
			r := team.ConsistencyUnderMinimum(teamID, 2, remaining)
			So(r.IsOK(), ShouldBeFalse)
			So(r.Kind, ShouldEqual, team.KindTeamUnderMinimum)
			So(r.TeamID, ShouldEqual, teamID)
			So(r.MemberCount, ShouldEqual, 2)
			So(r.RemainingMembers, ShouldResemble, remaining)
		})

		Convey("When a sole survivor was merged", func() {
			r := team.ConsistencyNeedsMerge(teamID, sole)
			So(r.Kind, ShouldEqual, team.KindTeamNeedsMerge)
			So(r.TeamID, ShouldEqual, teamID)
			So(*r.SoleParticipant, ShouldResemble, sole)
		})

		Convey("When no merge target exists", func() {
			r := team.ConsistencyNoMergeTarget(sole)
			So(r.Kind, ShouldEqual, team.KindNoMergeTarget)
			So(*r.SoleParticipant, ShouldResemble, sole)
		})
	})
}
