package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/aussiebroadwan/ignite/internal/app"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
)

var errNotSignedIn = errors.New("not signed in, run `ignite signin` first")

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// env is what a command runs against.
type env struct {
	app *app.Application
	out io.Writer
}

func (e *env) requireUser() (ignitesdk.User, error) {
	user := e.app.Session().User()
	if user.IsZero() {
		return ignitesdk.User{}, errNotSignedIn
	}
	return user, nil
}

type command struct {
	summary string
	usage   string
	run     func(ctx context.Context, e *env, args []string) error
}

var commandOrder = []string{
	"signin", "signup", "signout", "whoami", "profile", "avatar",
	"groups", "exercises", "exercise", "done", "history",
}

var commands = map[string]command{
	"signin":    {summary: "sign in with e-mail and password", usage: "-email <email> -password <password>", run: signIn},
	"signup":    {summary: "create an account and sign in", usage: "-name <name> -email <email> -password <password>", run: signUp},
	"signout":   {summary: "sign out and forget stored credentials", run: signOut},
	"whoami":    {summary: "show the signed in user", run: whoami},
	"profile":   {summary: "change name and password", usage: "-name <name> [-password <new> -old-password <old>]", run: profile},
	"avatar":    {summary: "upload a new avatar image", usage: "<image file>", run: avatar},
	"groups":    {summary: "list muscle groups", run: groups},
	"exercises": {summary: "list the exercises of a group", usage: "<group>", run: exercises},
	"exercise":  {summary: "show one exercise", usage: "<exercise id>", run: exercise},
	"done":      {summary: "mark an exercise as completed", usage: "<exercise id>", run: done},
	"history":   {summary: "list completed exercises by day", run: history},
}

func parseFlags(name string, args []string, setup func(fs *flag.FlagSet)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	setup(fs)
	if err := fs.Parse(args); err != nil {
		return usageError{err: err}
	}
	if fs.NArg() > 0 {
		return usagef("unexpected argument %q", fs.Arg(0))
	}
	return nil
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", usagef("expected %s", what)
	}
	return args[0], nil
}

func signIn(ctx context.Context, e *env, args []string) error {
	var email, password string
	err := parseFlags("signin", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "account e-mail")
		fs.StringVar(&password, "password", os.Getenv("IGNITE_PASSWORD"), "account password")
	})
	if err != nil {
		return err
	}
	if email == "" || password == "" {
		return usagef("e-mail and password are required")
	}

	if err := e.app.Session().SignIn(ctx, email, password); err != nil {
		return err
	}

	user := e.app.Session().User()
	if user.IsZero() {
		return errors.New("sign in did not return a complete session")
	}
	fmt.Fprintf(e.out, "signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func signUp(ctx context.Context, e *env, args []string) error {
	var in ignitesdk.SignUpRequest
	err := parseFlags("signup", args, func(fs *flag.FlagSet) {
		fs.StringVar(&in.Name, "name", "", "display name")
		fs.StringVar(&in.Email, "email", "", "account e-mail")
		fs.StringVar(&in.Password, "password", os.Getenv("IGNITE_PASSWORD"), "account password")
	})
	if err != nil {
		return err
	}
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return usagef("name, e-mail and password are required")
	}

	if err := e.app.Session().SignUp(ctx, in); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "account created, signed in as %s <%s>\n", in.Name, in.Email)
	return nil
}

func signOut(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Session().SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "signed out")
	return nil
}

func whoami(_ context.Context, e *env, _ []string) error {
	user, err := e.requireUser()
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "%s <%s>\n", user.Name, user.Email)
	if url := e.app.Client().AvatarURL(user.Avatar); url != "" {
		fmt.Fprintf(e.out, "avatar: %s\n", url)
	}
	return nil
}

func profile(ctx context.Context, e *env, args []string) error {
	user, err := e.requireUser()
	if err != nil {
		return err
	}

	in := ignitesdk.UpdateProfileRequest{Name: user.Name}
	err = parseFlags("profile", args, func(fs *flag.FlagSet) {
		fs.StringVar(&in.Name, "name", user.Name, "display name")
		fs.StringVar(&in.Password, "password", "", "new password")
		fs.StringVar(&in.OldPassword, "old-password", "", "current password, required with -password")
	})
	if err != nil {
		return err
	}
	if in.Password != "" && in.OldPassword == "" {
		return usagef("-old-password is required to change the password")
	}

	if err := e.app.Client().UpdateProfile(ctx, in); err != nil {
		return err
	}

	user.Name = in.Name
	if err := e.app.Session().UpdateUserProfile(ctx, user); err != nil {
		return err
	}

	fmt.Fprintln(e.out, "profile updated")
	return nil
}

func avatar(ctx context.Context, e *env, args []string) error {
	if _, err := e.requireUser(); err != nil {
		return err
	}
	path, err := oneArg(args, "an image file")
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return usagef("%v", err)
	}
	defer f.Close()

	updated, err := e.app.Client().UploadAvatar(ctx, filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), f)
	if err != nil {
		return err
	}

	if err := e.app.Session().UpdateUserProfile(ctx, *updated); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "avatar updated: %s\n", e.app.Client().AvatarURL(updated.Avatar))
	return nil
}

func groups(ctx context.Context, e *env, _ []string) error {
	if _, err := e.requireUser(); err != nil {
		return err
	}

	list, err := e.app.Client().Groups(ctx)
	if err != nil {
		return err
	}
	for _, g := range list {
		fmt.Fprintln(e.out, g)
	}
	return nil
}

func exercises(ctx context.Context, e *env, args []string) error {
	if _, err := e.requireUser(); err != nil {
		return err
	}
	group, err := oneArg(args, "a group name")
	if err != nil {
		return err
	}

	list, err := e.app.Client().ExercisesByGroup(ctx, group)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSERIES\tREPETITIONS")
	for _, ex := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", ex.ID, ex.Name, ex.Series, ex.Repetitions)
	}
	return tw.Flush()
}

func exercise(ctx context.Context, e *env, args []string) error {
	if _, err := e.requireUser(); err != nil {
		return err
	}
	id, err := oneArg(args, "an exercise id")
	if err != nil {
		return err
	}

	ex, err := e.app.Client().Exercise(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "%s (%s)\n", ex.Name, ex.Group)
	fmt.Fprintf(e.out, "%d series x %s repetitions\n", ex.Series, ex.Repetitions)
	fmt.Fprintf(e.out, "demo:  %s\n", e.app.Client().ExerciseDemoURL(*ex))
	fmt.Fprintf(e.out, "thumb: %s\n", e.app.Client().ExerciseThumbURL(*ex))
	return nil
}

func done(ctx context.Context, e *env, args []string) error {
	if _, err := e.requireUser(); err != nil {
		return err
	}
	id, err := oneArg(args, "an exercise id")
	if err != nil {
		return err
	}

	if err := e.app.Client().RegisterHistory(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "exercise registered in your history")
	return nil
}

func history(ctx context.Context, e *env, _ []string) error {
	if _, err := e.requireUser(); err != nil {
		return err
	}

	days, err := e.app.Client().History(ctx)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		fmt.Fprintln(e.out, "no exercises registered yet")
		return nil
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	for _, day := range days {
		fmt.Fprintln(tw, day.Title)
		for _, entry := range day.Data {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", entry.Hour, entry.Group, entry.Name)
		}
	}
	return tw.Flush()
}
