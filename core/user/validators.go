package user

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
	appfs "github.com/shafisadique/school-project-sub003/fs"
)

const commonPasswordsFile = "common-passwords.txt.gz"

var (
	tenantRoleTag  = "tenantrole"
	tenantRoleText = "invalid role"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdNoSpaceTag = "pwdnospace"
	pwdNotNumTag  = "pwdnotallnum"
	pwdCplxTag    = "pwdcplx"
	pwdAttrSimTag = "pwdtoosim"
	pwdCommonTag  = "pwdnocommon"
	pwdMaxSim     = .7
	specialRegex  = regexp.MustCompile("[^A-Za-z0-9]")

	passwordPolicyTexts = map[string]string{
		pwdMinLenTag:  fmt.Sprintf("password must contain at least %d characters", pwdMinLen),
		pwdNoSpaceTag: "password must not contain whitespace",
		pwdNotNumTag:  "password cannot be entirely numeric",
		pwdCplxTag:    "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
		pwdAttrSimTag: "password cannot be similar to user attributes",
		pwdCommonTag:  "password is too common",
	}

	commonPasswords     []string
	commonPasswordsOnce sync.Once
)

// InitValidators registers the user validators on validate. core.InitValidators must have run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	loadCommonPasswords(appfs.FS)

	_ = validate.RegisterValidation(tenantRoleTag, tenantRoleValidation)
	core.RegisterCustomTranslation(validate, translator, tenantRoleTag, tenantRoleText)

	validate.RegisterStructValidation(userStructValidation, NewUser{}, ResetPassword{})
	for tag, text := range passwordPolicyTexts {
		core.RegisterCustomTranslation(validate, translator, tag, text)
	}
}

func loadCommonPasswords(fsys fs.FS) {
	commonPasswordsOnce.Do(func() {
		pwds, err := readCommonPasswords(fsys)
		if err != nil {
			// the policy still applies without the list
			return
		}
		commonPasswords = pwds
	})
}

func readCommonPasswords(fsys fs.FS) ([]string, error) {
	file, err := fsys.Open(commonPasswordsFile)
	if err != nil {
		return nil, errors.Wrap(err, "opening common passwords")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	gzRdr, err := gzip.NewReader(file)
	if err != nil {
		return nil, errors.Wrap(err, "reading common passwords")
	}
	pwds := make([]string, 0, 20000)
	scanner := bufio.NewScanner(gzRdr)
	for scanner.Scan() {
		if pwd := strings.ToLower(strings.TrimSpace(scanner.Text())); pwd != "" {
			pwds = append(pwds, pwd)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning common passwords")
	}
	sort.Strings(pwds)
	return pwds, nil
}

// Custom Validators

func tenantRoleValidation(fl validator.FieldLevel) bool {
	role, ok := auth.ParseRole(fl.Field().String())
	return ok && role.IsTenantRole()
}

// userStructValidation does struct level validation on NewUser and ResetPassword structs.
func userStructValidation(sl validator.StructLevel) {
	switch v := sl.Current().Interface().(type) {
	case NewUser:
		if v.Username == "" && v.Email == "" {
			sl.ReportError(v.Username, "username", "Username", "required", "")
		}
		if tag := checkPassword(v.Password, v.Name, v.Username, v.Email); tag != "" {
			sl.ReportError(v.Password, "password", "Password", tag, "")
		}
	case ResetPassword:
		// similarity to the account's attributes is checked once the ticket is resolved
		if tag := checkPassword(v.NewPassword); tag != "" {
			sl.ReportError(v.NewPassword, "newPassword", "NewPassword", tag, "")
		}
	}
}

// checkPassword applies the password policy to pwd and returns the tag of the first rule it breaks, if any:
// - minLen: 8
// - no whitespace
// - not all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
// - no common password
func checkPassword(pwd string, userAttrs ...string) string {
	if pwd == "" {
		return "" // reported by `required`
	}
	if len(pwd) < pwdMinLen {
		return pwdMinLenTag
	}

	var digitCount, runeCount int
	var hasUpper, hasLower bool
	for _, char := range pwd {
		runeCount++
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		hasUpper = hasUpper || unicode.IsUpper(char)
		hasLower = hasLower || unicode.IsLower(char)
	}
	if digitCount == runeCount {
		return pwdNotNumTag
	}
	if !(hasUpper && hasLower && digitCount > 0 && specialRegex.MatchString(pwd)) {
		return pwdCplxTag
	}
	if tag := checkPasswordSimilarity(pwd, userAttrs...); tag != "" {
		return tag
	}

	lpwd := strings.ToLower(pwd)
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) && commonPasswords[idx] == lpwd {
		return pwdCommonTag
	}
	return ""
}

func checkPasswordSimilarity(pwd string, userAttrs ...string) string {
	lpwd := strings.ToLower(pwd)
	for _, attr := range userAttrs {
		if attr == "" {
			continue
		}
		matcher := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(strings.ToLower(attr), ""))
		if matcher.QuickRatio() >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}
	return ""
}
