// Package menu holds the domain types shared by the lunch menu pipeline: the
// extracted sections, the component contracts wired together by the cycle
// runner, the error kinds they report, and target day resolution.
package menu
