package service

import (
	"context"

	"pairchat/internal/domain"
	"pairchat/internal/protocol"
)

// SignupOutcome classifies a signup request.
type SignupOutcome int

const (
	SignupAccepted SignupOutcome = iota
	SignupNameTaken
	SignupEmailTaken
)

// signupAcks maps each outcome to its acknowledgement string.
var signupAcks = map[SignupOutcome]string{
	SignupAccepted:   protocol.AckOK,
	SignupNameTaken:  protocol.AckUserNameTaken,
	SignupEmailTaken: protocol.AckUserEmailTaken,
}

// Ack returns the acknowledgement string sent for this outcome.
func (o SignupOutcome) Ack() string {
	return signupAcks[o]
}

// ResolveSignup decides the outcome of a signup request. The username check
// runs first and short-circuits the email check when the name is taken;
// clients rely on this precedence.
func ResolveSignup(ctx context.Context, users domain.UserDirectory, info protocol.SignupInfo) (SignupOutcome, error) {
	nameTaken, err := users.CheckForUserName(ctx, info.UserName)
	if err != nil {
		return 0, err
	}
	if nameTaken {
		return SignupNameTaken, nil
	}

	emailTaken, err := users.CheckForEmail(ctx, info.UserEmail)
	if err != nil {
		return 0, err
	}
	if emailTaken {
		return SignupEmailTaken, nil
	}

	return SignupAccepted, nil
}
